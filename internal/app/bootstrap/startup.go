// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratafiles/internal/app/content"
	filestore "github.com/dalemusser/stratafiles/internal/app/store/file"
	jobstore "github.com/dalemusser/stratafiles/internal/app/store/jobs"
	"github.com/dalemusser/stratafiles/internal/app/system/jobrunner"
	"github.com/dalemusser/stratafiles/internal/app/system/thumbs"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// This app uses Startup to bring up the thumbnail worker pool: a jobrunner
// over the durable Mongo job queue, with the thumbnail generator registered
// as its only handler. The runner is kept in a package variable so that
// BuildHandler can enqueue into it and Shutdown can stop it.
//
// Returning a non-nil error aborts startup and prevents the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	startJobRunner(appCfg, deps, logger)
	return nil
}

// jobRunner is the global job runner instance, used by BuildHandler for
// enqueueing and by Shutdown for graceful stop.
var jobRunner *jobrunner.Runner

// startJobRunner initializes and starts the thumbnail worker pool.
func startJobRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	runnerCfg := jobrunner.DefaultConfig()
	if appCfg.WorkerCount > 0 {
		runnerCfg.WorkerCount = appCfg.WorkerCount
	}
	if appCfg.PollInterval > 0 {
		runnerCfg.PollInterval = appCfg.PollInterval
	}
	if appCfg.JobRetention > 0 {
		runnerCfg.JobRetention = appCfg.JobRetention
	}

	jobRunner = jobrunner.New(jobstore.New(deps.MongoDatabase), logger, runnerCfg)

	files := filestore.New(deps.MongoDatabase)
	blobs := content.New(deps.FileStorage)
	worker := thumbs.NewWorker(files, blobs, logger)

	jobRunner.Register(thumbs.JobType, worker.Handle)
	jobRunner.AddQueue(thumbs.QueueName)

	if err := jobRunner.Start(); err != nil {
		// Only happens on double start, which would be a wiring bug.
		logger.Error("failed to start job runner", zap.Error(err))
	}
}

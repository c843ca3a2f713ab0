// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/stratafiles/internal/app/content"
	authfeature "github.com/dalemusser/stratafiles/internal/app/features/auth"
	filesfeature "github.com/dalemusser/stratafiles/internal/app/features/files"
	statusfeature "github.com/dalemusser/stratafiles/internal/app/features/status"
	usersfeature "github.com/dalemusser/stratafiles/internal/app/features/users"
	filestore "github.com/dalemusser/stratafiles/internal/app/store/file"
	"github.com/dalemusser/stratafiles/internal/app/store/sessions"
	userstore "github.com/dalemusser/stratafiles/internal/app/store/users"
	"github.com/dalemusser/stratafiles/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. All routes speak JSON; auth is an opaque
// X-Token header resolved by the auth middleware, so there are no cookies
// and no CSRF layer here.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	users := userstore.New(deps.MongoDatabase)
	files := filestore.New(deps.MongoDatabase)
	sessionStore := sessions.New(deps.MongoDatabase)
	blobs := content.New(deps.FileStorage)

	resolver := auth.NewResolver(sessionStore, users, logger)

	r := chi.NewRouter()

	// Global middleware. The timeout is generous because uploads arrive as
	// a single base64 body.
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Token resolution: attaches the caller to the context when the X-Token
	// header maps to a live session. Routes that require auth layer
	// RequireCaller on top of this.
	r.Use(resolver.LoadCaller)

	authfeature.NewHandler(users, sessionStore, appCfg.SessionTTL, logger).Routes(r)
	usersfeature.NewHandler(users, logger).Routes(r)
	filesfeature.NewHandler(files, blobs, jobRunner, logger).Routes(r)
	statusfeature.NewHandler(deps.MongoClient, users, files, logger).Routes(r)

	return r, nil
}

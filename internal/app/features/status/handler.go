// Package status exposes liveness and counters for the service.
package status

import (
	"context"
	"net/http"

	filestore "github.com/dalemusser/stratafiles/internal/app/store/file"
	userstore "github.com/dalemusser/stratafiles/internal/app/store/users"
	"github.com/dalemusser/stratafiles/internal/app/system/jsonutil"
	"github.com/dalemusser/stratafiles/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the status and stats endpoints.
type Handler struct {
	client *mongo.Client
	users  *userstore.Store
	files  *filestore.Store
	logger *zap.Logger
}

func NewHandler(client *mongo.Client, users *userstore.Store, files *filestore.Store, logger *zap.Logger) *Handler {
	return &Handler{client: client, users: users, files: files, logger: logger}
}

// Routes mounts the status endpoints. Both are public.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/status", h.Status)
	r.Get("/stats", h.Stats)
}

// Status handles GET /status. It reports whether the database and the
// session backend are reachable. Both live in Mongo, so one ping covers both;
// the shape keeps them separate in case the session backend moves.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	alive := true
	if err := h.client.Ping(ctx, nil); err != nil {
		h.logger.Warn("database ping failed", zap.Error(err))
		alive = false
	}

	jsonutil.OK(w, map[string]bool{"db": alive, "sessions": alive})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userCount, err := h.users.Count(ctx)
	if err != nil {
		h.logger.Error("failed to count users", zap.Error(err))
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	fileCount, err := h.files.Count(ctx)
	if err != nil {
		h.logger.Error("failed to count files", zap.Error(err))
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	jsonutil.OK(w, map[string]int64{"users": userCount, "files": fileCount})
}

// Package auth provides the login and logout endpoints.
//
// Endpoints:
//   - GET /connect - Basic auth in, session token out
//   - GET /disconnect - X-Token in, session deleted
package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/dalemusser/stratafiles/internal/app/store/sessions"
	userstore "github.com/dalemusser/stratafiles/internal/app/store/users"
	"github.com/dalemusser/stratafiles/internal/app/system/auth"
	"github.com/dalemusser/stratafiles/internal/app/system/authutil"
	"github.com/dalemusser/stratafiles/internal/app/system/jsonutil"
	"github.com/dalemusser/stratafiles/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// Handler handles login and logout requests.
type Handler struct {
	users      *userstore.Store
	sessions   *sessions.Store
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewHandler creates a new auth handler. sessionTTL bounds how long issued
// tokens stay valid; zero means the session store default (24h).
func NewHandler(users *userstore.Store, sessionStore *sessions.Store, sessionTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		users:      users,
		sessions:   sessionStore,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Routes mounts the auth endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/connect", h.Connect)
	r.Get("/disconnect", h.Disconnect)
}

// Connect handles GET /connect. Credentials arrive as HTTP Basic auth; a
// successful login mints an opaque random token and stores it with a TTL.
// Bad credentials and unknown accounts both answer a bare 401.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok || email == "" {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.users.GetByEmail(ctx, email)
	if err != nil || !authutil.CheckPassword(user.PasswordHash, password) {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	raw := securecookie.GenerateRandomKey(32)
	if raw == nil {
		h.logger.Error("failed to generate session token")
		jsonutil.InternalError(w, "Internal server error")
		return
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	if err := h.sessions.Create(ctx, token, user.ID, h.sessionTTL); err != nil {
		h.logger.Error("failed to store session",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	h.logger.Debug("session created", zap.String("user_id", user.ID.Hex()))
	jsonutil.OK(w, map[string]string{"token": token})
}

// Disconnect handles GET /disconnect. Unknown or expired tokens answer 401;
// a live one is deleted and the response is 204.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(auth.TokenHeader)
	if token == "" {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.sessions.GetByToken(ctx, token); err != nil {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.sessions.Delete(ctx, token); err != nil {
		h.logger.Error("failed to delete session", zap.Error(err))
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	jsonutil.NoContent(w)
}

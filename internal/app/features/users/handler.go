// Package users provides account creation and the current-user endpoint.
package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/stratafiles/internal/app/store/users"
	"github.com/dalemusser/stratafiles/internal/app/system/auth"
	"github.com/dalemusser/stratafiles/internal/app/system/authutil"
	"github.com/dalemusser/stratafiles/internal/app/system/jsonutil"
	"github.com/dalemusser/stratafiles/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler handles user account requests.
type Handler struct {
	users  *userstore.Store
	logger *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{users: users, logger: logger}
}

// Routes mounts the user endpoints. Registration is open; /users/me requires
// a valid token.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/users", h.Create)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireCaller)
		r.Get("/users/me", h.Me)
	})
}

type createRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// View is the public shape of a user account.
type View struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Create handles POST /users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		jsonutil.BadRequest(w, "Missing email")
		return
	}
	if req.Password == "" {
		jsonutil.BadRequest(w, "Missing password")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.users.Create(ctx, req.Email, hash)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			jsonutil.BadRequest(w, "Already exist")
			return
		}
		h.logger.Error("failed to create user", zap.Error(err))
		jsonutil.InternalError(w, "Internal server error")
		return
	}

	jsonutil.Created(w, View{ID: user.ID.Hex(), Email: user.Email})
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CurrentCaller(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}
	jsonutil.OK(w, View{ID: caller.ID.Hex(), Email: caller.Email})
}

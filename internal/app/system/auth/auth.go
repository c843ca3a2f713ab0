// Package auth resolves X-Token headers to users and decides file visibility.
package auth

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratafiles/internal/app/store/sessions"
	userstore "github.com/dalemusser/stratafiles/internal/app/store/users"
	"github.com/dalemusser/stratafiles/internal/app/system/jsonutil"
	"github.com/dalemusser/stratafiles/internal/app/system/timeouts"
	"github.com/dalemusser/stratafiles/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TokenHeader is the header clients send their session token in.
const TokenHeader = "X-Token"

// Caller is the authenticated user attached to a request.
type Caller struct {
	ID    primitive.ObjectID
	Email string
}

// Resolver maps session tokens to users.
//
// Resolution never produces an error for callers: a missing token, an
// expired session, a deleted user, or an unreachable backing store all
// resolve to "unauthenticated". Failures are logged here so they stay
// observable without changing the outcome.
type Resolver struct {
	sessions *sessions.Store
	users    *userstore.Store
	logger   *zap.Logger
}

// NewResolver creates a Resolver over the session and user stores.
func NewResolver(sessionStore *sessions.Store, userStore *userstore.Store, logger *zap.Logger) *Resolver {
	return &Resolver{
		sessions: sessionStore,
		users:    userStore,
		logger:   logger,
	}
}

// ResolveToken returns the caller a token belongs to, or nil if the token is
// missing, unknown, expired, or the stores are unavailable.
func (rv *Resolver) ResolveToken(ctx context.Context, token string) *Caller {
	if token == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	session, err := rv.sessions.GetByToken(ctx, token)
	if err != nil {
		// Expired and unknown tokens land here; only log the unusual cases.
		if ctx.Err() != nil {
			rv.logger.Warn("session lookup timed out", zap.Error(err))
		}
		return nil
	}

	user, err := rv.users.GetByID(ctx, session.UserID)
	if err != nil {
		if ctx.Err() != nil {
			rv.logger.Warn("user lookup timed out", zap.Error(err))
		}
		return nil
	}

	return &Caller{ID: user.ID, Email: user.Email}
}

type ctxKey string

const callerKey ctxKey = "caller"

// CurrentCaller returns the caller & "found?" flag from the request context.
func CurrentCaller(r *http.Request) (*Caller, bool) {
	c, ok := r.Context().Value(callerKey).(*Caller)
	return c, ok && c != nil
}

// LoadCaller returns middleware that resolves the X-Token header and, when it
// maps to a user, injects the caller into the request context. Anonymous
// requests pass through untouched; use RequireCaller where auth is mandatory.
func (rv *Resolver) LoadCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if caller := rv.ResolveToken(r.Context(), r.Header.Get(TokenHeader)); caller != nil {
			r = r.WithContext(context.WithValue(r.Context(), callerKey, caller))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCaller returns middleware that rejects requests without a valid
// session with 401. It must run after LoadCaller.
func RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentCaller(r); !ok {
			jsonutil.Unauthorized(w, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CanView reports whether caller may read a file's metadata or content:
// public files are visible to everyone, private files only to their owner.
// Callers are expected to surface a false result as "not found", never
// "forbidden", so private files don't leak their existence.
func CanView(caller *Caller, f *models.File) bool {
	if f.IsPublic {
		return true
	}
	return caller != nil && caller.ID == f.OwnerID
}

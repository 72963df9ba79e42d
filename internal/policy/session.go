package policy

import (
	"context"
	"errors"
	"net/http"

	"github.com/diewo77/go-albaranes/auth"
	"github.com/diewo77/go-albaranes/httpx"
	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/store"
	"gorm.io/gorm"
)

type ctxKey string

const authCtxKey = ctxKey("authContext")

// WithAuthContext stores the request's AuthContext.
func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey, ac)
}

// FromContext extracts the request's AuthContext.
func FromContext(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(authCtxKey).(*AuthContext)
	return ac, ok
}

// LoadUser resolves token claims into a current user record on every
// request. The lookup includes soft-deleted users: a deleted account still
// resolves here, and endpoints that must reject it check Deleted()
// explicitly. A hard-deleted account fails with USER_NOT_FOUND even if its
// token has not expired yet.
func LoadUser(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "NOT_TOKEN", nil)
				return
			}
			user, err := store.First[models.User](db, store.IncludeDeleted, "id = ?", claims.UID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					httpx.JSONError(w, http.StatusNotFound, "USER_NOT_FOUND", nil)
					return
				}
				httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", nil)
				return
			}
			ac := &AuthContext{User: user}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), ac)))
		})
	}
}

// RequireRole blocks requests whose user lacks all of the allowed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := FromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "NOT_TOKEN", nil)
				return
			}
			if err := ac.RequireRole(roles...); err != nil {
				httpx.JSONError(w, http.StatusForbidden, "FORBIDDEN", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/playermanager/internal/api/apierr"
	"github.com/mcoot/playermanager/internal/model"
)

type contextKey string

const (
	permissionsContextKey contextKey = "permissions"
	tokenContextKey       contextKey = "token"
)

// SessionCookie is the cookie carrying the session token
const SessionCookie = "session"

// Resolver turns a token into a permission set
type Resolver interface {
	Resolve(ctx context.Context, token string) *model.PermissionSet
}

// Permissions resolves the caller's token on every request. Callers
// without a token get the base grants.
func Permissions(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			perms := resolver.Resolve(r.Context(), token)

			ctx := r.Context()
			ctx = context.WithValue(ctx, tokenContextKey, token)
			ctx = context.WithValue(ctx, permissionsContextKey, perms)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCluster rejects callers lacking a cluster action
func RequireCluster(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			perms := GetPermissions(r.Context())
			if perms == nil || !perms.HasCluster(action) {
				apierr.WriteError(w, apierr.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated rejects callers whose token identified nobody
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perms := GetPermissions(r.Context())
		if perms == nil || !perms.Authenticated() {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetPermissions returns the resolved permission set from the request context
func GetPermissions(ctx context.Context) *model.PermissionSet {
	perms, _ := ctx.Value(permissionsContextKey).(*model.PermissionSet)
	return perms
}

// GetToken returns the caller's raw token from the request context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// MustGetPermissions returns the permission set or panics
func MustGetPermissions(ctx context.Context) *model.PermissionSet {
	perms := GetPermissions(ctx)
	if perms == nil {
		panic("no permissions in context - permissions middleware not applied?")
	}
	return perms
}

/*
middleware.go - Bearer-token authentication for the API

PURPOSE:
  Extracts and validates the JWT from the Authorization header, and places
  the caller's identity (user ID + role) in the request context. Handlers
  read it back with CallerFrom. Admin-only routes additionally pass through
  RequireAdmin.
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/warp/vacation-engine/auth"
	"github.com/warp/vacation-engine/vacation"
)

type contextKey string

const callerKey contextKey = "caller"

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID vacation.UserID
	Role   vacation.Role
}

// CallerFrom returns the authenticated caller, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok
}

// Authenticator validates the bearer token and injects the caller identity.
func Authenticator(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token", Code: "unauthorized"})
				return
			}

			claims, err := tokens.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid token", Code: "unauthorized"})
				return
			}

			caller := Caller{UserID: claims.UserID, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, caller)))
		})
	}
}

// RequireAdmin rejects non-administrator callers.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFrom(r.Context())
		if !ok || caller.Role != vacation.RoleAdmin {
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "administrator role required", Code: "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

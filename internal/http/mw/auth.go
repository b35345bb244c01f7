// Package mw contains HTTP middleware for the faceforge-api.
package mw

import (
	"context"
	"net/http"
	"strings"

	"github.com/faceforge/faceforge-api/internal/auth"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserClaimsKey is the context key for user claims.
	UserClaimsKey ContextKey = "user_claims"
)

// UserClaims is the authenticated identity attached to a request.
type UserClaims struct {
	UserID string
	Email  string
	Admin  bool
}

// GetUserClaims retrieves user claims from context. Returns nil for
// unauthenticated requests.
func GetUserClaims(ctx context.Context) *UserClaims {
	claims, ok := ctx.Value(UserClaimsKey).(*UserClaims)
	if !ok {
		return nil
	}
	return claims
}

// extractToken pulls the bearer token out of the Authorization header.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}

// Auth returns middleware that requires a valid bearer token.
func Auth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, &UserClaims{
				UserID: claims.UserID,
				Email:  claims.Email,
				Admin:  claims.Admin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns middleware that attaches claims when a valid token is
// present but lets unauthenticated requests through. Invalid tokens are
// treated as anonymous rather than rejected, so expired sessions can still
// use the public surface.
func OptionalAuth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, &UserClaims{
				UserID: claims.UserID,
				Email:  claims.Email,
				Admin:  claims.Admin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns middleware that gates admin routes. Access is granted
// either by an admin claim on the bearer token or by presenting the admin
// API key in the X-Admin-Key header.
func RequireAdmin(adminKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserClaims(r.Context())
			if claims != nil && claims.Admin {
				next.ServeHTTP(w, r)
				return
			}

			if key := r.Header.Get("X-Admin-Key"); key != "" {
				if err := auth.CheckAdminKey(adminKeyHash, key); err == nil {
					// Synthesize claims so handlers can attribute the action.
					ctx := context.WithValue(r.Context(), UserClaimsKey, &UserClaims{
						UserID: "admin-key",
						Admin:  true,
					})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			http.Error(w, `{"error":"admin access required"}`, http.StatusForbidden)
		})
	}
}

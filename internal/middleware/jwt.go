package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crucial707/courier/internal/auth"
)

type key string

const (
	UserIDKey key = "user_id"
	claimsKey key = "claims"
)

// JWTMiddleware accepts "Authorization: Bearer <token>", rejects revoked tokens and
// puts the caller's id and claims in the request context.
func JWTMiddleware(issuer *auth.Issuer, revoker auth.Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenStr == "" {
				unauthorized(w, "invalid authorization header")
				return
			}

			claims, err := issuer.Parse(tokenStr)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			if revoker != nil {
				revoked, err := revoker.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					slog.Error("revocation lookup failed", "error", err)
					writeError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				if revoked {
					unauthorized(w, "token revoked")
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated user's id set by JWTMiddleware.
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

// GetClaims returns the verified token claims set by JWTMiddleware.
func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(auth.Claims)
	return c, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, msg)
}

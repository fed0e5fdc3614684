package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "prophecy/pkg/domain"
	"prophecy/pkg/requestcontext"
)

// JWTClaims carries the claims handlers care about.
type JWTClaims struct {
	Subject string
	JTI     string
}

// JWTValidator validates bearer tokens presented by callers.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// RequireAuth rejects requests without a valid bearer token and binds the
// token subject as the caller identity for downstream authority checks.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access, missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			caller, err := id.ParseIdentity(claims.Subject)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, invalid subject",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "invalid token subject")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithCallerID(ctx, caller)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

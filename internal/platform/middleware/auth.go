package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "valido/pkg/domain-errors"
	"valido/pkg/platform/httputil"
	"valido/pkg/requestcontext"
	"valido/pkg/secrets"
)

// TokenValidator validates a bearer token and returns the caller subject.
type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims is what the middleware needs from a validated token.
type TokenClaims struct {
	Subject string
	Scope   string
}

// RequireAuth rejects requests without a valid bearer token and injects the
// token subject into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSubject(ctx, claims.Subject)))
		})
	}
}

// RequireAPIKey rejects requests whose X-API-Key does not match any of the
// configured bcrypt hashes. The hash list is small (one per caller system),
// so a linear scan per request is fine.
func RequireAPIKey(hashes []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key := r.Header.Get("X-API-Key")
			if key == "" {
				logger.WarnContext(ctx, "unauthorized access - missing api key",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing X-API-Key header"))
				return
			}

			for _, hash := range hashes {
				if secrets.Verify(key, hash) == nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.WarnContext(ctx, "unauthorized access - unknown api key",
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid api key"))
		})
	}
}

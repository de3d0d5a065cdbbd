package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"clinica/pkg/requestcontext"
)

// RequireOperator guards the operator surface with a shared secret. The
// operator API never runs under a tenant scope, so it must never be mounted
// inside the tenant-authenticated subtree.
func RequireOperator(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqID := requestcontext.RequestID(ctx)

			if token == "" {
				logger.ErrorContext(ctx, "operator surface disabled - no operator token configured", "request_id", reqID)
				writeAuthError(w, http.StatusNotFound, "not_found", "Not found")
				return
			}

			presented := r.Header.Get("X-Operator-Token")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.WarnContext(ctx, "operator access rejected", "request_id", reqID)
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Invalid operator token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

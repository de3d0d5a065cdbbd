package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"clinica/internal/scope"
	id "clinica/pkg/domain"
	dErrors "clinica/pkg/domain-errors"
	"clinica/pkg/requestcontext"
)

// TokenValidator verifies a bearer token and returns its claim set.
type TokenValidator interface {
	ValidateToken(tokenString string) (*scope.Claims, error)
}

// TenantGate decides whether a resolved tenant may serve traffic at all
// (suspended and cancelled tenants are turned away before any data access).
type TenantGate interface {
	Allow(ctx context.Context, tenantID id.TenantID) error
}

// RequireTenant authenticates the request, resolves its tenant scope, and
// stores both on the context for the handler layer. Requests without a
// resolvable tenant never reach a handler: there is no default tenant and no
// unscoped fallthrough.
func RequireTenant(validator TokenValidator, gate TenantGate, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", reqID)
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token", "error", err, "request_id", reqID)
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			sc, userID, err := scope.Resolve(claims)
			if err != nil {
				// A verified identity without a tenant claim is a hard
				// authorization failure, never a default.
				if dErrors.HasCode(err, dErrors.CodeTenantNotResolved) {
					logger.WarnContext(ctx, "token carries no resolvable tenant", "error", err, "request_id", reqID)
					writeAuthError(w, http.StatusForbidden, "tenant_not_resolved", "Token does not resolve to a tenant")
					return
				}
				logger.WarnContext(ctx, "identity resolution failed", "error", err, "request_id", reqID)
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Invalid identity")
				return
			}

			if gate != nil {
				if err := gate.Allow(ctx, sc.TenantID()); err != nil {
					logger.WarnContext(ctx, "tenant gated",
						"tenant_id", sc.TenantID().String(),
						"error", err,
						"request_id", reqID)
					writeAuthError(w, http.StatusForbidden, "tenant_inactive", "Tenant is not active")
					return
				}
			}

			ctx = scope.NewContext(ctx, sc)
			ctx = requestcontext.WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Static payloads; ignore write errors like the rest of the error paths.
	_, _ = w.Write([]byte(`{"error":"` + code + `","error_description":"` + description + `"}`))
}

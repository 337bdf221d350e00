package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"roboreg/pkg/requestcontext"
)

// RequireAdminToken guards the admin surface (approvals, payment review).
// The acting admin identity travels in X-Admin-ID for the audit trail.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			// Constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "admin token required")
				return
			}

			adminID := r.Header.Get("X-Admin-ID")
			if adminID == "" {
				adminID = "admin"
			}
			ctx := requestcontext.WithAdminID(r.Context(), adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "roboreg/pkg/domain"
	"roboreg/pkg/requestcontext"
)

// TokenValidator validates bearer tokens issued to organisations.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims carries the identity the core needs: the acting organisation.
// How the token was minted is an auth concern outside this service.
type TokenClaims struct {
	OrganisationID string
	Role           string
}

// RequireOrganisation rejects requests without a valid organisation token and
// injects the acting organisation into the context.
func RequireOrganisation(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w, "invalid or expired token")
				return
			}
			if claims.OrganisationID == "" {
				unauthorized(w, "token carries no organisation")
				return
			}

			ctx = requestcontext.WithOrganisationID(ctx, id.OrganisationID(claims.OrganisationID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

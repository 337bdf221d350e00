package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"roboreg/pkg/requestcontext"
)

// RequestID assigns each request a UUID (or adopts the inbound X-Request-ID)
// and stores it in the context for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package middleware

import (
	"net/http"
	"time"

	"roboreg/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request and
// stores it in the context. All writes within one request then share the same
// timestamp, which keeps participation entries, registrations and audit
// events consistent.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

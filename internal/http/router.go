// Package httpapi assembles the HTTP surface: middleware chain, vertical
// handler registration, health and metrics endpoints.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roboreg/internal/admission"
	"roboreg/internal/approval"
	"roboreg/internal/payment"
	"roboreg/internal/platform/middleware"
	"roboreg/pkg/platform/httputil"
)

// Deps carries everything the router needs. Handlers register themselves;
// the router only decides which middleware guards which group.
type Deps struct {
	Logger         *slog.Logger
	TokenValidator middleware.TokenValidator
	AdminToken     string
	Admission      *admission.Handler
	Payment        *payment.Handler
	Approval       *approval.Handler
	Health         func() error
}

// NewRouter wires all endpoints. Organisation routes sit behind bearer-token
// auth, admin routes behind the admin token; health and metrics are open.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Group(func(org chi.Router) {
			org.Use(middleware.RequireOrganisation(deps.TokenValidator, deps.Logger))
			deps.Admission.Register(org)
			deps.Payment.Register(org)
		})
		api.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAdminToken(deps.AdminToken, deps.Logger))
			deps.Payment.RegisterAdmin(admin)
			deps.Approval.Register(admin)
		})
	})

	return r
}

func handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

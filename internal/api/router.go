// Package api assembles the HTTP surface: middleware chain, transaction routes,
// and the operational endpoints.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dvloznov/sales-dashboard/internal/api/handlers"
	"github.com/dvloznov/sales-dashboard/internal/api/middleware"
	"github.com/dvloznov/sales-dashboard/internal/metrics"
)

// Deps are the collaborators the router wires together.
type Deps struct {
	Service  handlers.TransactionService
	Backend  string
	Location *time.Location
	Metrics  *metrics.Metrics
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Log      zerolog.Logger
}

type banner struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Backend string `json:"backend"`
}

// NewRouter returns the fully wrapped HTTP handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.RequestID(d.Log))
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics(d.Metrics))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, banner{
			OK:      true,
			Message: "Sales transactions API",
			Backend: d.Backend,
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	handlers.NewTransactionsHandler(d.Service, d.Location, d.Log).Register(r)

	return r
}

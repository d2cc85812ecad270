// Package httptransport is the HTTP edge of the credential core: a JSON
// API for the dashboard frontend plus operational endpoints. Handlers
// delegate to the session service and never hold business logic.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"repocomply/internal/platform/health"
	"repocomply/internal/platform/middleware"
)

// NewRouter wires all endpoints with the standard middleware stack.
func NewRouter(h *Handler, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.handleSessionStatus)
			r.Delete("/", h.handleDisconnect)
			r.Post("/token", h.handleConnectToken)
			r.Post("/app", h.handleConnectApp)
			r.Get("/access-token", h.handleAccessToken)
		})

		r.Get("/audit", h.handleAuditLog)

		r.Route("/identity", func(r chi.Router) {
			r.Delete("/", h.handleClearIdentity)
			r.Post("/manual", h.handleManualIdentity)
			r.Route("/device", func(r chi.Router) {
				r.Post("/", h.handleStartDeviceFlow)
				r.Get("/", h.handleDeviceFlowStatus)
				r.Delete("/", h.handleCancelDeviceFlow)
			})
		})
	})

	return r
}

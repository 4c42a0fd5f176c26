// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-directory/internal/common/logger"
)

// NewRouter assembles the HTTP surface.
func NewRouter(h *Handlers, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(instrument(log))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", h.handleSearch)
		r.Get("/keywords", h.handleListKeywords)
		r.Get("/homepage", h.handleHomePage)

		r.Route("/organisation", func(r chi.Router) {
			r.Post("/sms", h.handleSendSMS)
			r.Get("/{id}", h.handleGetOrganisation)
			r.Post("/{id}/report", h.handleReportIncorrectInformation)
			r.Post("/{id}/rate", h.handleRateOrganisation)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

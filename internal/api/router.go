// Package api assembles the HTTP boundary of the acquisition service.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mediahaul/mediahaul/internal/api/handler"
	mw "github.com/mediahaul/mediahaul/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured. An empty
// apiKey leaves the API unauthenticated.
func NewRouter(
	transferHandler *handler.TransferHandler,
	jobHandler *handler.JobHandler,
	videoHandler *handler.VideoHandler,
	sourceHandler *handler.SourceHandler,
	healthHandler *handler.HealthHandler,
	apiKey string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	// Bulk enumerations run in the worker pool; nothing here should hold
	// a connection longer than a slow provider metadata call.
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(mw.CORS)

	// Health endpoint (no auth)
	r.Get("/healthz", healthHandler.Healthz)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if apiKey != "" {
			r.Use(mw.APIKeyAuth(apiKey))
		}

		r.Post("/transfers", transferHandler.Submit)
		r.Post("/transfers/bulk", transferHandler.SubmitBulk)
		r.Get("/transfers", transferHandler.List)

		r.Get("/jobs/{jobID}", jobHandler.Get)

		r.Get("/videos", videoHandler.Fetch)
		r.Get("/videos/info", videoHandler.Info)

		r.Get("/sources", sourceHandler.List)
		r.Post("/sources", sourceHandler.Add)
		r.Delete("/sources/{sourceID}", sourceHandler.Delete)
		r.Post("/sources/{sourceID}/sync", sourceHandler.Sync)
	})

	return r
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/service"
)

// SourceHandler manages tracked sources.
type SourceHandler struct {
	svc    *service.AcquisitionService
	logger *slog.Logger
}

// NewSourceHandler creates a new source handler.
func NewSourceHandler(svc *service.AcquisitionService, logger *slog.Logger) *SourceHandler {
	return &SourceHandler{svc: svc, logger: logger}
}

// AddSourceRequest is the JSON body for tracking a new source.
type AddSourceRequest struct {
	Name    string `json:"name,omitempty"`
	Kind    string `json:"kind"`
	Query   string `json:"query"`
	Quality string `json:"quality,omitempty"`
}

// SourcesResponse lists tracked sources.
type SourcesResponse struct {
	Sources []*domain.TrackedSource `json:"sources"`
	Count   int                     `json:"count"`
}

// List handles GET /sources.
func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	sources, err := h.svc.ListSources(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sources == nil {
		sources = []*domain.TrackedSource{}
	}
	writeJSON(w, http.StatusOK, SourcesResponse{Sources: sources, Count: len(sources)})
}

// Add handles POST /sources.
func (h *SourceHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	src, err := h.svc.AddSource(r.Context(), req.Name, domain.ListingKind(req.Kind), req.Query, req.Quality)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, src)
}

// Delete handles DELETE /sources/{sourceID}.
func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := domain.SourceID(chi.URLParam(r, "sourceID"))

	if err := h.svc.DeleteSource(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sync handles POST /sources/{sourceID}/sync - enqueue a bulk acquisition
// from the stored source.
func (h *SourceHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id := domain.SourceID(chi.URLParam(r, "sourceID"))

	job, err := h.svc.SyncSource(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, SubmitResponse{
		JobID:  job.ID.String(),
		Status: string(job.Status),
	})
}

package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/service"
)

// VideoHandler serves metadata-only operations: single-video info and
// fetch-only enumeration.
type VideoHandler struct {
	svc    *service.AcquisitionService
	logger *slog.Logger
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(svc *service.AcquisitionService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{svc: svc, logger: logger}
}

// InfoResponse is the canonical metadata of one video.
type InfoResponse struct {
	URL      string                   `json:"url"`
	Metadata domain.CanonicalMetadata `json:"metadata"`
}

// Info handles GET /videos/info?url= - metadata without transfer.
func (h *VideoHandler) Info(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	meta, err := h.svc.VideoInfo(r.Context(), url)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, InfoResponse{URL: url, Metadata: meta})
}

// FetchResponse carries fetch-only lite records.
type FetchResponse struct {
	Videos []domain.LiteRecord `json:"videos"`
	Count  int                 `json:"count"`
}

// Fetch handles GET /videos?kind=&query=&providers=&limit=&delay_ms= -
// enumerate without transferring.
func (h *VideoHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind := domain.ListingKind(q.Get("kind"))
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "kind must be one of model, playlist, search")
		return
	}
	query := q.Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter is required")
		return
	}

	var providers []string
	if raw := q.Get("providers"); raw != "" {
		providers = strings.Split(raw, ",")
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var delay time.Duration
	if raw := q.Get("delay_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			writeError(w, http.StatusBadRequest, "delay_ms must be a non-negative integer")
			return
		}
		delay = time.Duration(ms) * time.Millisecond
	}

	records, err := h.svc.FetchVideos(r.Context(), kind, query, providers, limit, delay)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FetchResponse{Videos: records, Count: len(records)})
}

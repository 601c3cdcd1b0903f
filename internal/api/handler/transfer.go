package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/service"
)

// TransferHandler handles acquisition submission and live-status requests.
type TransferHandler struct {
	svc    *service.AcquisitionService
	logger *slog.Logger
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(svc *service.AcquisitionService, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{svc: svc, logger: logger}
}

// SubmitResponse is the JSON response after queueing an acquisition.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Submit handles POST /transfers - queue a single-URL acquisition.
func (h *TransferHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.svc.EnqueueSingle(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitResponse{
		JobID:  job.ID.String(),
		Status: string(job.Status),
	})
}

// SubmitBulk handles POST /transfers/bulk - queue an enumerate-and-transfer
// acquisition.
func (h *TransferHandler) SubmitBulk(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.svc.EnqueueBulk(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitResponse{
		JobID:  job.ID.String(),
		Status: string(job.Status),
	})
}

// ListResponse carries the live registry snapshot.
type ListResponse struct {
	Transfers []domain.TransferState `json:"transfers"`
	Count     int                    `json:"count"`
}

// List handles GET /transfers - live transfer states.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	states := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, ListResponse{Transfers: states, Count: len(states)})
}

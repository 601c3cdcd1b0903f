package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/service"
)

// JobHandler serves job records.
type JobHandler struct {
	svc    *service.AcquisitionService
	logger *slog.Logger
}

// NewJobHandler creates a new job handler.
func NewJobHandler(svc *service.AcquisitionService, logger *slog.Logger) *JobHandler {
	return &JobHandler{svc: svc, logger: logger}
}

// JobResponse represents a job in API responses.
type JobResponse struct {
	JobID       string            `json:"job_id"`
	Kind        string            `json:"kind"`
	Status      string            `json:"status"`
	TransferID  string            `json:"transfer_id,omitempty"`
	OutputPath  string            `json:"output_path,omitempty"`
	Outcome     string            `json:"outcome,omitempty"`
	Aggregate   *domain.Aggregate `json:"aggregate,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Get handles GET /jobs/{jobID}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := domain.JobID(chi.URLParam(r, "jobID"))

	job, err := h.svc.GetJob(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := JobResponse{
		JobID:       job.ID.String(),
		Kind:        string(job.Kind),
		Status:      string(job.Status),
		TransferID:  job.TransferID.String(),
		OutputPath:  job.OutputPath,
		Outcome:     string(job.Outcome),
		Error:       job.LastError,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.Kind == domain.JobBulk {
		agg := job.Aggregate
		resp.Aggregate = &agg
	}
	writeJSON(w, http.StatusOK, resp)
}

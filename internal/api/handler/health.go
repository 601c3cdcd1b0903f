package handler

import (
	"net/http"
	"time"

	"github.com/mediahaul/mediahaul/internal/repository"
	"github.com/mediahaul/mediahaul/internal/transfer"
)

var startTime = time.Now()

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	jobRepo   repository.JobRepository
	outputDir string
	version   string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(jobRepo repository.JobRepository, outputDir, version string) *HealthHandler {
	return &HealthHandler{
		jobRepo:   jobRepo,
		outputDir: outputDir,
		version:   version,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status        string      `json:"status"`
	Version       string      `json:"version"`
	UptimeSeconds int64       `json:"uptime_s"`
	FreeDiskBytes int64       `json:"free_disk_bytes"`
	Queue         *QueueStats `json:"queue,omitempty"`
}

// QueueStats contains job queue statistics.
type QueueStats struct {
	Queued    int `json:"queued"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Healthz handles GET /healthz.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		FreeDiskBytes: transfer.FreeDiskSpace(h.outputDir),
	}

	if stats, err := h.jobRepo.Stats(r.Context()); err == nil {
		resp.Queue = &QueueStats{
			Queued:    stats.Queued,
			Running:   stats.Running,
			Completed: stats.Completed,
			Failed:    stats.Failed,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

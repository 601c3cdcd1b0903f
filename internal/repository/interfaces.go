package repository

import (
	"context"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// JobRepository manages the in-memory acquisition job queue.
type JobRepository interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, job *domain.AcquisitionJob) error

	// Dequeue retrieves the next queued job (FIFO). Returns
	// domain.ErrNoJobs when nothing is waiting.
	Dequeue(ctx context.Context) (*domain.AcquisitionJob, error)

	// Update replaces a job's stored state.
	Update(ctx context.Context, job *domain.AcquisitionJob) error

	// Get retrieves a job by ID.
	Get(ctx context.Context, id domain.JobID) (*domain.AcquisitionJob, error)

	// Stats returns queue statistics.
	Stats(ctx context.Context) (*QueueStats, error)
}

// SourceRepository persists tracked sources.
type SourceRepository interface {
	// Add stores a new tracked source. Returns domain.ErrDuplicateSource
	// when the query URL is already tracked.
	Add(ctx context.Context, src *domain.TrackedSource) error

	// Get retrieves one tracked source by ID.
	Get(ctx context.Context, id domain.SourceID) (*domain.TrackedSource, error)

	// List returns all tracked sources, oldest first.
	List(ctx context.Context) ([]*domain.TrackedSource, error)

	// Delete removes a tracked source.
	Delete(ctx context.Context, id domain.SourceID) error

	// Close releases the underlying store.
	Close() error
}

// QueueStats contains job queue statistics.
type QueueStats struct {
	Queued    int
	Running   int
	Completed int
	Failed    int
}

package domain

import (
	"time"
)

// JobID is a unique identifier for a queued acquisition job.
type JobID string

// String returns the string representation of the JobID.
func (id JobID) String() string {
	return string(id)
}

// JobStatus represents the current state of an acquisition job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobKind distinguishes single-URL acquisitions from bulk enumerations.
type JobKind string

const (
	JobSingle JobKind = "single"
	JobBulk   JobKind = "bulk"
)

// TransferRequest is the payload of a single-URL acquisition.
type TransferRequest struct {
	URL       string `json:"url"`
	Quality   string `json:"quality,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// BulkRequest is the payload of an enumerate-and-transfer-all acquisition.
type BulkRequest struct {
	Kind        ListingKind `json:"kind"`
	Query       string      `json:"query"`
	Providers   []string    `json:"providers,omitempty"`
	Quality     string      `json:"quality,omitempty"`
	OutputDir   string      `json:"output_dir,omitempty"`
	HaltOnError bool        `json:"halt_on_error,omitempty"`
}

// Aggregate is the outcome summary of a bulk job. FailedURLs lists the
// identifiers of every item whose transfer failed.
type Aggregate struct {
	Succeeded  int      `json:"succeeded"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	FailedURLs []string `json:"failed_urls,omitempty"`
}

// AcquisitionJob is one queued unit of work for the worker pool. Jobs live
// only in memory; nothing about them is persisted.
type AcquisitionJob struct {
	ID          JobID
	Kind        JobKind
	Single      *TransferRequest
	Bulk        *BulkRequest
	Status      JobStatus
	TransferID  TransferID
	OutputPath  string
	Outcome     TransferOutcome
	Aggregate   Aggregate
	LastError   string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// NewSingleJob creates a queued job for one URL.
func NewSingleJob(id JobID, req TransferRequest) *AcquisitionJob {
	return &AcquisitionJob{
		ID:        id,
		Kind:      JobSingle,
		Single:    &req,
		Status:    JobStatusQueued,
		CreatedAt: time.Now(),
	}
}

// NewBulkJob creates a queued job for an enumeration request.
func NewBulkJob(id JobID, req BulkRequest) *AcquisitionJob {
	return &AcquisitionJob{
		ID:        id,
		Kind:      JobBulk,
		Bulk:      &req,
		Status:    JobStatusQueued,
		CreatedAt: time.Now(),
	}
}

// MarkRunning transitions the job to running.
func (j *AcquisitionJob) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// MarkCompleted transitions the job to completed.
func (j *AcquisitionJob) MarkCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
}

// MarkFailed transitions the job to failed with an error message.
func (j *AcquisitionJob) MarkFailed(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.LastError = err
	j.CompletedAt = &now
}

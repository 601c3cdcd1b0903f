package domain

import (
	"time"
)

// TransferID is a unique identifier for one acquisition transfer.
type TransferID string

// String returns the string representation of the TransferID.
func (id TransferID) String() string {
	return string(id)
}

// TransferStatus represents the live state of an in-flight transfer.
type TransferStatus string

const (
	TransferDownloading TransferStatus = "downloading"
	TransferCompleted   TransferStatus = "completed"
	TransferFailed      TransferStatus = "failed"
)

// ProgressUnit says what a transfer's progress counters are measured in.
type ProgressUnit string

const (
	// UnitBytes counts bytes moved; speed is meaningful.
	UnitBytes ProgressUnit = "bytes"
	// UnitSegments counts transport segments; speed carries no meaning
	// and is held at its last byte-based value.
	UnitSegments ProgressUnit = "segments"
)

// TransferState is the live progress record for one transfer. It is owned
// exclusively by the registry; the executor and adapters only ever hold the id.
type TransferState struct {
	ID         TransferID     `json:"id"`
	Filename   string         `json:"filename"`
	Status     TransferStatus `json:"status"`
	Progress   int64          `json:"progress"`
	Total      int64          `json:"total"`
	Unit       ProgressUnit   `json:"unit"`
	SpeedBps   float64        `json:"speed_bps"`
	LastUpdate time.Time      `json:"last_update"`
}

// Terminal reports whether the transfer has reached a final status.
func (s TransferState) Terminal() bool {
	return s.Status == TransferCompleted || s.Status == TransferFailed
}

// TransferOutcome is the typed result of a successful Execute call.
type TransferOutcome string

const (
	// OutcomeDownloaded means the artifact was produced by this transfer.
	OutcomeDownloaded TransferOutcome = "downloaded"
	// OutcomeSkipped means the final path already existed and the
	// skip-existing policy short-circuited the transfer.
	OutcomeSkipped TransferOutcome = "skipped"
)

// CompletedArtifact describes a finished transfer for registration with the
// external application. Optional fields stay empty when unknown.
type CompletedArtifact struct {
	Filename    string   `json:"filename"`
	RemoteURL   string   `json:"remote_url"`
	SizeBytes   int64    `json:"size_bytes"`
	SourceURL   string   `json:"source_url,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Duration    int      `json:"duration,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
}

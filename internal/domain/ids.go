package domain

import "github.com/google/uuid"

// ID constructors. Identifiers are a short type prefix plus the first 8 hex
// characters of a UUID, long enough to be unique within one process's
// lifetime and short enough to read in logs.

// NewTransferID generates a transfer identifier.
func NewTransferID() TransferID {
	return TransferID("tr_" + uuid.New().String()[:8])
}

// NewJobID generates a job identifier.
func NewJobID() JobID {
	return JobID("job_" + uuid.New().String()[:8])
}

// NewSourceID generates a tracked-source identifier.
func NewSourceID() SourceID {
	return SourceID("src_" + uuid.New().String()[:8])
}

package domain

import (
	"time"
)

// SourceID is a unique identifier for a tracked source.
type SourceID string

// String returns the string representation of the SourceID.
func (id SourceID) String() string {
	return string(id)
}

// TrackedSource is a followed model/playlist/feed whose listing can be
// re-acquired on demand. Stored in the SQLite source store.
type TrackedSource struct {
	ID      SourceID    `json:"id"`
	Name    string      `json:"name"`
	Kind    ListingKind `json:"kind"`
	Query   string      `json:"query"`
	Quality string      `json:"quality,omitempty"`
	AddedAt time.Time   `json:"added_at"`
}

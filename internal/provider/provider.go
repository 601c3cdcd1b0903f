// Package provider defines the adapter contract every content source
// integration satisfies, plus the ordered dispatch table and the request
// limiter shared by all adapters.
package provider

import (
	"context"
	"iter"
	"path/filepath"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// Seq is a lazy sequence of video references. Sequences are finite,
// forward-only and not restartable: re-ranging re-issues the underlying
// network listing calls. Items carry a per-item error so enumeration can
// continue past individual failures.
type Seq = iter.Seq2[domain.VideoReference, error]

// TransferDest tells an adapter where output belongs. Adapters that write
// to an exact path use Join(Dir, Filename); adapters that pick their own
// output name write into Dir and leave reconciliation to the caller.
type TransferDest struct {
	Dir      string
	Filename string
}

// Path returns the exact destination path for adapters that honor it.
func (d TransferDest) Path() string {
	if d.Filename == "" {
		return d.Dir
	}
	return filepath.Join(d.Dir, d.Filename)
}

// ProgressSink receives transfer progress callbacks. Position and total are
// in the adapter's progress unit. Implementations must tolerate calls after
// the transfer has already been torn down.
type ProgressSink interface {
	Report(position, total int64)
}

// SinkFunc adapts a plain function to a ProgressSink.
type SinkFunc func(position, total int64)

// Report implements ProgressSink.
func (f SinkFunc) Report(position, total int64) { f(position, total) }

// Description is a provider-native metadata snapshot, captured before
// normalization. Duration keeps the provider's own representation (integer
// seconds, float seconds or free text) for the normalizer to reduce.
type Description struct {
	Title       string
	Author      string
	Duration    any
	Tags        []string
	PublishDate string
	Thumbnail   string
}

// QualityStrategy is one ordered attempt at discovering the quality tokens
// a provider exposes for a video. Adapters declare their strategies as
// data; the normalizer runs them in order and takes the first non-empty
// result. Provider libraries rename and relocate this information between
// releases, so every adapter carries its full fallback list.
type QualityStrategy struct {
	Name    string
	Extract func(ctx context.Context, ref domain.VideoReference) ([]string, error)
}

// Adapter is the capability set one content source integration exposes.
// Listing operations return domain.ErrUnsupportedListing (or
// domain.ErrPlaylistUnsupported) when the source has no such capability.
type Adapter interface {
	// Kind identifies the adapter in dispatch tables and logs.
	Kind() domain.ProviderKind

	// Match reports whether the URL belongs to this adapter. Evaluated in
	// table registration order; the first match wins.
	Match(rawURL string) bool

	// GetVideo resolves a URL into a reference carrying the adapter's
	// native handle for the video.
	GetVideo(ctx context.Context, rawURL string) (domain.VideoReference, error)

	// Describe returns the provider-native metadata for a reference.
	Describe(ctx context.Context, ref domain.VideoReference) (Description, error)

	// Strategies returns the ordered quality extraction attempts.
	Strategies() []QualityStrategy

	// DefaultQualities returns the substitute token set used when no
	// strategy yields anything.
	DefaultQualities() []string

	// Unit reports how this adapter counts transfer progress.
	Unit() domain.ProgressUnit

	// ListModel enumerates a creator's videos.
	ListModel(ctx context.Context, model string) (Seq, error)

	// ListPlaylist enumerates a playlist's videos.
	ListPlaylist(ctx context.Context, playlistURL string) (Seq, error)

	// Search enumerates videos matching a query.
	Search(ctx context.Context, query string) (Seq, error)

	// Transfer downloads the referenced video at the given quality. The
	// sink may be nil when no progress reporting is wanted.
	Transfer(ctx context.Context, ref domain.VideoReference, dest TransferDest, quality string, sink ProgressSink) error
}

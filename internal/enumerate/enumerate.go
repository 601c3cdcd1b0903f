// Package enumerate turns listing requests into lazy reference sequences
// spanning one or more provider adapters.
package enumerate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/provider"
)

// Enumerator resolves listing requests against the adapter table.
type Enumerator struct {
	table  *provider.Table
	logger *slog.Logger
}

// NewEnumerator creates an enumerator over the given adapter table.
func NewEnumerator(table *provider.Table, logger *slog.Logger) *Enumerator {
	return &Enumerator{table: table, logger: logger}
}

// Enumerate returns a lazy sequence of references for the listing request.
// Sequences are finite and forward-only; re-ranging re-issues the underlying
// listing calls. Per-item failures surface through the sequence's error
// value so iteration can continue past them.
func (e *Enumerator) Enumerate(ctx context.Context, kind domain.ListingKind, query string, providers []domain.ProviderKind) (provider.Seq, error) {
	switch kind {
	case domain.ListingModel:
		return e.model(ctx, query)
	case domain.ListingPlaylist:
		return e.playlist(ctx, query)
	case domain.ListingSearch:
		return e.search(ctx, query, providers), nil
	}
	return nil, fmt.Errorf("%w: unknown listing kind %q", domain.ErrUnsupportedListing, kind)
}

// model classifies the query URL and delegates to the owning adapter.
func (e *Enumerator) model(ctx context.Context, query string) (provider.Seq, error) {
	adapter, err := e.table.Classify(query)
	if err != nil {
		return nil, err
	}
	return adapter.ListModel(ctx, query)
}

// playlist accepts YouTube playlist URLs only; every other URL form is a
// domain error regardless of which adapter claims it.
func (e *Enumerator) playlist(ctx context.Context, query string) (provider.Seq, error) {
	adapter, err := e.table.Classify(query)
	if err != nil {
		return nil, err
	}
	if adapter.Kind() != domain.ProviderYouTube {
		return nil, domain.NewProviderError(adapter.Kind(), "list_playlist", domain.ErrPlaylistUnsupported)
	}
	return adapter.ListPlaylist(ctx, query)
}

// search fans the query out across the selected adapters and concatenates
// their sequences in table order, one provider exhausted before the next
// starts. Each adapter's Search call is deferred until iteration reaches
// it. An empty selection yields an empty sequence.
func (e *Enumerator) search(ctx context.Context, query string, kinds []domain.ProviderKind) provider.Seq {
	selected := e.selectAdapters(kinds)
	return func(yield func(domain.VideoReference, error) bool) {
		for _, adapter := range selected {
			seq, err := adapter.Search(ctx, query)
			if err != nil {
				e.logger.Debug("search provider failed",
					"provider", adapter.Kind(), "error", err)
				if !yield(domain.VideoReference{}, err) {
					return
				}
				continue
			}
			for ref, itemErr := range seq {
				if !yield(ref, itemErr) {
					return
				}
			}
		}
	}
}

// selectAdapters filters the table to the requested kinds, keeping table
// order rather than request order.
func (e *Enumerator) selectAdapters(kinds []domain.ProviderKind) []provider.Adapter {
	want := make(map[domain.ProviderKind]struct{}, len(kinds))
	for _, k := range kinds {
		want[k] = struct{}{}
	}

	var out []provider.Adapter
	for _, a := range e.table.Adapters() {
		if _, ok := want[a.Kind()]; ok {
			out = append(out, a)
		}
	}
	return out
}

package provider

import (
	"fmt"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// Table is the ordered adapter registry. Classification scans adapters in
// registration order, so adapters with narrow URL signatures must be
// registered before adapters with broad ones.
type Table struct {
	adapters []Adapter
}

// NewTable creates a registry holding the given adapters in order.
func NewTable(adapters ...Adapter) *Table {
	return &Table{adapters: adapters}
}

// Register appends an adapter to the scan order.
func (t *Table) Register(a Adapter) {
	t.adapters = append(t.adapters, a)
}

// Classify returns the first adapter whose URL signature matches.
func (t *Table) Classify(rawURL string) (Adapter, error) {
	if rawURL == "" {
		return nil, domain.ErrEmptyURL
	}
	for _, a := range t.adapters {
		if a.Match(rawURL) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrNoProvider, rawURL)
}

// ByKind returns the adapter registered for a kind.
func (t *Table) ByKind(kind domain.ProviderKind) (Adapter, bool) {
	for _, a := range t.adapters {
		if a.Kind() == kind {
			return a, true
		}
	}
	return nil, false
}

// Adapters returns the registered adapters in scan order.
func (t *Table) Adapters() []Adapter {
	out := make([]Adapter, len(t.adapters))
	copy(out, t.adapters)
	return out
}

// Kinds returns the registered adapter kinds in scan order.
func (t *Table) Kinds() []domain.ProviderKind {
	kinds := make([]domain.ProviderKind, 0, len(t.adapters))
	for _, a := range t.adapters {
		kinds = append(kinds, a.Kind())
	}
	return kinds
}

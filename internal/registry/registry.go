// Package registry tracks live transfer progress for monitoring surfaces.
package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// speedSampleWindow is the minimum spacing between speed samples. Byte
// counters arrive per chunk; sampling any faster produces jumpy readings.
const speedSampleWindow = 500 * time.Millisecond

// Registry holds the live state of every in-flight transfer. Finished
// transfers stay visible for a grace period so pollers observe the terminal
// status before the entry is released. All methods are safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	entries map[domain.TransferID]*entry
	grace   time.Duration
	window  time.Duration
	logger  *slog.Logger
}

type entry struct {
	state       domain.TransferState
	sampleTime  time.Time
	sampleBytes int64
	timer       *time.Timer
}

// NewRegistry creates a registry whose finished entries linger for the
// given grace period.
func NewRegistry(grace time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[domain.TransferID]*entry),
		grace:   grace,
		window:  speedSampleWindow,
		logger:  logger,
	}
}

// Register inserts a fresh downloading entry for the transfer. Registering
// an id again resets its entry.
func (r *Registry) Register(id domain.TransferID, filename string, unit domain.ProgressUnit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[id]; ok && prev.timer != nil {
		prev.timer.Stop()
	}

	now := time.Now()
	r.entries[id] = &entry{
		state: domain.TransferState{
			ID:         id,
			Filename:   filename,
			Status:     domain.TransferDownloading,
			Unit:       unit,
			LastUpdate: now,
		},
		sampleTime: now,
	}
}

// Update records transfer progress. Updates for unknown ids are dropped
// silently: adapters may keep reporting briefly after an entry has been
// released. Speed is recomputed only for byte-counted transfers and only
// when a full sample window has elapsed; segment counters hold their last
// byte-based value.
func (r *Registry) Update(id domain.TransferID, progress, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return
	}

	now := time.Now()
	e.state.Progress = progress
	if total > 0 {
		e.state.Total = total
	}
	e.state.LastUpdate = now

	if e.state.Unit != domain.UnitBytes {
		return
	}
	elapsed := now.Sub(e.sampleTime)
	if elapsed < r.window {
		return
	}
	moved := progress - e.sampleBytes
	if moved < 0 {
		// Progress restarted, e.g. a fallback retry. Resample from here.
		e.state.SpeedBps = 0
	} else if elapsed > 0 {
		e.state.SpeedBps = float64(moved*8) / elapsed.Seconds()
	}
	e.sampleTime = now
	e.sampleBytes = progress
}

// Rename updates the displayed filename, typically after reconciliation
// settles the final artifact name. No-op for unknown ids.
func (r *Registry) Rename(id domain.TransferID, filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.state.Filename = filename
	}
}

// Complete marks the transfer finished and schedules its release.
func (r *Registry) Complete(id domain.TransferID) {
	r.finish(id, domain.TransferCompleted)
}

// Fail marks the transfer failed and schedules its release.
func (r *Registry) Fail(id domain.TransferID) {
	r.finish(id, domain.TransferFailed)
}

func (r *Registry) finish(id domain.TransferID, status domain.TransferStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.state.Terminal() {
		return
	}

	e.state.Status = status
	e.state.LastUpdate = time.Now()
	if status == domain.TransferCompleted && e.state.Total > 0 {
		e.state.Progress = e.state.Total
	}
	e.timer = time.AfterFunc(r.grace, func() { r.drop(id) })
}

func (r *Registry) drop(id domain.TransferID) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Get returns the current state of one transfer.
func (r *Registry) Get(id domain.TransferID) (domain.TransferState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return domain.TransferState{}, false
	}
	return e.state, true
}

// Snapshot returns copies of every tracked transfer, most recently updated
// first.
func (r *Registry) Snapshot() []domain.TransferState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.TransferState, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.state)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUpdate.Equal(out[j].LastUpdate) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastUpdate.After(out[j].LastUpdate)
	})
	return out
}

// Len returns the number of tracked transfers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close stops pending release timers and clears the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	r.entries = make(map[domain.TransferID]*entry)
}

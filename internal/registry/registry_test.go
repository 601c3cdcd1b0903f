package registry

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mediahaul/mediahaul/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(grace time.Duration) *Registry {
	return NewRegistry(grace, testLogger())
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()

	r.Register("tr_1", "video.mp4", domain.UnitBytes)

	state, ok := r.Get("tr_1")
	if !ok {
		t.Fatal("transfer should be tracked")
	}
	if state.Status != domain.TransferDownloading {
		t.Errorf("status = %s, want downloading", state.Status)
	}
	if state.Filename != "video.mp4" {
		t.Errorf("filename = %q", state.Filename)
	}
	if state.Unit != domain.UnitBytes {
		t.Errorf("unit = %s", state.Unit)
	}
	if state.LastUpdate.IsZero() {
		t.Error("LastUpdate should be set")
	}
}

func TestRegistry_Update(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()

	r.Register("tr_1", "video.mp4", domain.UnitBytes)
	r.Update("tr_1", 512, 2048)

	state, _ := r.Get("tr_1")
	if state.Progress != 512 {
		t.Errorf("progress = %d, want 512", state.Progress)
	}
	if state.Total != 2048 {
		t.Errorf("total = %d, want 2048", state.Total)
	}
}

func TestRegistry_Update_UnknownIDIsNoOp(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()

	r.Update("tr_ghost", 100, 200)

	if _, ok := r.Get("tr_ghost"); ok {
		t.Error("unknown id should not be created by Update")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_SpeedSampling(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()
	r.window = 0

	r.Register("tr_1", "video.mp4", domain.UnitBytes)
	time.Sleep(5 * time.Millisecond)
	r.Update("tr_1", 1024*1024, 0)

	state, _ := r.Get("tr_1")
	if state.SpeedBps <= 0 {
		t.Errorf("speed = %v, want positive after bytes moved", state.SpeedBps)
	}
}

func TestRegistry_SpeedHeldInsideWindow(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()
	r.window = time.Hour

	r.Register("tr_1", "video.mp4", domain.UnitBytes)
	r.Update("tr_1", 1024, 0)
	r.Update("tr_1", 4096, 0)

	state, _ := r.Get("tr_1")
	if state.SpeedBps != 0 {
		t.Errorf("speed = %v, want 0 before the window elapses", state.SpeedBps)
	}
	if state.Progress != 4096 {
		t.Errorf("progress = %d, progress still updates inside the window", state.Progress)
	}
}

func TestRegistry_SpeedNotComputedForSegments(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()
	r.window = 0

	r.Register("tr_1", "stream.ts", domain.UnitSegments)
	time.Sleep(5 * time.Millisecond)
	r.Update("tr_1", 3, 10)

	state, _ := r.Get("tr_1")
	if state.SpeedBps != 0 {
		t.Errorf("speed = %v, segment counters carry no speed", state.SpeedBps)
	}
}

func TestRegistry_CompleteAndRelease(t *testing.T) {
	r := testRegistry(20 * time.Millisecond)
	defer r.Close()

	r.Register("tr_1", "video.mp4", domain.UnitBytes)
	r.Update("tr_1", 100, 200)
	r.Complete("tr_1")

	state, ok := r.Get("tr_1")
	if !ok {
		t.Fatal("completed transfer should linger through the grace period")
	}
	if state.Status != domain.TransferCompleted {
		t.Errorf("status = %s, want completed", state.Status)
	}
	if state.Progress != 200 {
		t.Errorf("progress = %d, completion should snap to total", state.Progress)
	}

	time.Sleep(100 * time.Millisecond)
	if _, ok := r.Get("tr_1"); ok {
		t.Error("transfer should be released after the grace period")
	}
}

func TestRegistry_Fail(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()

	r.Register("tr_1", "video.mp4", domain.UnitBytes)
	r.Fail("tr_1")

	state, _ := r.Get("tr_1")
	if state.Status != domain.TransferFailed {
		t.Errorf("status = %s, want failed", state.Status)
	}
}

func TestRegistry_TerminalStatusSticks(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()

	r.Register("tr_1", "video.mp4", domain.UnitBytes)
	r.Complete("tr_1")
	r.Fail("tr_1")

	state, _ := r.Get("tr_1")
	if state.Status != domain.TransferCompleted {
		t.Errorf("status = %s, first terminal status should stick", state.Status)
	}
}

func TestRegistry_UpdateAfterReleaseIsNoOp(t *testing.T) {
	r := testRegistry(10 * time.Millisecond)
	defer r.Close()

	r.Register("tr_1", "video.mp4", domain.UnitBytes)
	r.Complete("tr_1")
	time.Sleep(60 * time.Millisecond)

	r.Update("tr_1", 999, 999)
	if _, ok := r.Get("tr_1"); ok {
		t.Error("late update should not resurrect a released transfer")
	}
}

func TestRegistry_Rename(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()

	r.Register("tr_1", "stream.ts", domain.UnitSegments)
	r.Rename("tr_1", "Concert Night.ts")

	state, _ := r.Get("tr_1")
	if state.Filename != "Concert Night.ts" {
		t.Errorf("filename = %q", state.Filename)
	}

	r.Rename("tr_ghost", "x") // must not panic
}

func TestRegistry_Snapshot_MostRecentFirst(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()

	r.Register("tr_a", "a.mp4", domain.UnitBytes)
	time.Sleep(5 * time.Millisecond)
	r.Register("tr_b", "b.mp4", domain.UnitBytes)

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2", len(snap))
	}
	if snap[0].ID != "tr_b" {
		t.Errorf("snap[0] = %s, want the most recently updated", snap[0].ID)
	}

	// Updating the older entry moves it to the front.
	time.Sleep(5 * time.Millisecond)
	r.Update("tr_a", 10, 100)
	snap = r.Snapshot()
	if snap[0].ID != "tr_a" {
		t.Errorf("snap[0] = %s after update, want tr_a", snap[0].ID)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := testRegistry(time.Second)
	defer r.Close()

	const workers = 8
	const updates = 200

	var wg sync.WaitGroup
	for g := 0; g < workers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			id := domain.TransferID(fmt.Sprintf("tr_%d", g))
			r.Register(id, fmt.Sprintf("video-%d.mp4", g), domain.UnitBytes)
			for i := 1; i <= updates; i++ {
				r.Update(id, int64(i), updates)
				r.Snapshot()
			}
			if g%2 == 0 {
				r.Complete(id)
			} else {
				r.Fail(id)
			}
		}(g)
	}
	wg.Wait()

	snap := r.Snapshot()
	if len(snap) != workers {
		t.Fatalf("len(snap) = %d, want %d", len(snap), workers)
	}
	for _, state := range snap {
		if !state.Terminal() {
			t.Errorf("transfer %s status = %s, want a terminal status", state.ID, state.Status)
		}
	}
}

func TestRegistry_Close(t *testing.T) {
	r := testRegistry(time.Hour)

	r.Register("tr_1", "a.mp4", domain.UnitBytes)
	r.Register("tr_2", "b.mp4", domain.UnitBytes)
	r.Complete("tr_1")
	r.Close()

	if r.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", r.Len())
	}
}

package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRunner records which jobs it ran.
type mockRunner struct {
	mu   sync.Mutex
	jobs []domain.JobID
	done chan struct{}
}

func (m *mockRunner) RunJob(_ context.Context, job *domain.AcquisitionJob) error {
	m.mu.Lock()
	m.jobs = append(m.jobs, job.ID)
	m.mu.Unlock()
	job.MarkRunning()
	job.MarkCompleted()
	if m.done != nil {
		select {
		case m.done <- struct{}{}:
		default:
		}
	}
	return nil
}

func (m *mockRunner) ran() []domain.JobID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.JobID, len(m.jobs))
	copy(out, m.jobs)
	return out
}

func TestPool_StartStop(t *testing.T) {
	repo := repository.NewInMemoryJobRepository()
	pool := NewPool(Config{Workers: 2, PollInterval: 10 * time.Millisecond}, repo, &mockRunner{}, testLogger())

	pool.Start()
	if err := pool.Stop(time.Second); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestPool_ProcessesQueuedJob(t *testing.T) {
	repo := repository.NewInMemoryJobRepository()
	runner := &mockRunner{done: make(chan struct{}, 1)}
	pool := NewPool(Config{Workers: 1, PollInterval: 5 * time.Millisecond}, repo, runner, testLogger())

	job := domain.NewSingleJob(domain.NewJobID(), domain.TransferRequest{URL: "https://v/1"})
	if err := repo.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	pool.Start()
	defer pool.Stop(time.Second)

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed in time")
	}

	ran := runner.ran()
	if len(ran) != 1 || ran[0] != job.ID {
		t.Errorf("ran = %v, want [%s]", ran, job.ID)
	}
}

func TestPool_DefaultConfig(t *testing.T) {
	pool := NewPool(Config{}, repository.NewInMemoryJobRepository(), &mockRunner{}, testLogger())
	if pool.workers != 2 {
		t.Errorf("workers = %d, want default 2", pool.workers)
	}
	if pool.pollInterval != 2*time.Second {
		t.Errorf("pollInterval = %v, want default 2s", pool.pollInterval)
	}
}

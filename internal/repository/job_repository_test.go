package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/mediahaul/mediahaul/internal/domain"
)

func TestInMemoryJobRepository_FIFO(t *testing.T) {
	repo := NewInMemoryJobRepository()
	ctx := context.Background()

	first := domain.NewSingleJob(domain.NewJobID(), domain.TransferRequest{URL: "https://a.example.com/1"})
	second := domain.NewSingleJob(domain.NewJobID(), domain.TransferRequest{URL: "https://a.example.com/2"})

	if err := repo.Enqueue(ctx, first); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := repo.Enqueue(ctx, second); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	got, err := repo.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("Dequeue() = %s, want first job %s", got.ID, first.ID)
	}

	got, err = repo.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("Dequeue() = %s, want second job %s", got.ID, second.ID)
	}

	if _, err := repo.Dequeue(ctx); !errors.Is(err, domain.ErrNoJobs) {
		t.Errorf("Dequeue() on empty queue error = %v, want ErrNoJobs", err)
	}
}

func TestInMemoryJobRepository_UpdateUnknown(t *testing.T) {
	repo := NewInMemoryJobRepository()
	job := domain.NewSingleJob(domain.NewJobID(), domain.TransferRequest{URL: "https://a.example.com/1"})

	if err := repo.Update(context.Background(), job); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("Update() error = %v, want ErrJobNotFound", err)
	}
}

func TestInMemoryJobRepository_Stats(t *testing.T) {
	repo := NewInMemoryJobRepository()
	ctx := context.Background()

	queued := domain.NewSingleJob(domain.NewJobID(), domain.TransferRequest{URL: "https://a.example.com/1"})
	running := domain.NewBulkJob(domain.NewJobID(), domain.BulkRequest{Kind: domain.ListingSearch, Query: "q"})
	failed := domain.NewSingleJob(domain.NewJobID(), domain.TransferRequest{URL: "https://a.example.com/2"})

	for _, j := range []*domain.AcquisitionJob{queued, running, failed} {
		if err := repo.Enqueue(ctx, j); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	running.MarkRunning()
	failed.MarkFailed("boom")

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Queued != 1 || stats.Running != 1 || stats.Failed != 1 || stats.Completed != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestInMemoryJobRepository_DequeueSkipsNonQueued(t *testing.T) {
	repo := NewInMemoryJobRepository()
	ctx := context.Background()

	job := domain.NewSingleJob(domain.NewJobID(), domain.TransferRequest{URL: "https://a.example.com/1"})
	if err := repo.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	job.MarkRunning()

	if _, err := repo.Dequeue(ctx); !errors.Is(err, domain.ErrNoJobs) {
		t.Errorf("Dequeue() error = %v, want ErrNoJobs", err)
	}
}

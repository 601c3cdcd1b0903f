package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mediahaul/mediahaul/internal/domain"
)

func newSourceRepo(t *testing.T) *SQLiteSourceRepository {
	t.Helper()
	repo, err := NewSQLiteSourceRepository(filepath.Join(t.TempDir(), "sources.db"))
	if err != nil {
		t.Fatalf("NewSQLiteSourceRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteSourceRepository_AddGetDelete(t *testing.T) {
	repo := newSourceRepo(t)
	ctx := context.Background()

	src := &domain.TrackedSource{
		ID:      domain.NewSourceID(),
		Name:    "some channel",
		Kind:    domain.ListingModel,
		Query:   "https://www.youtube.com/channel/UCabc123",
		Quality: "720p",
		AddedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.Add(ctx, src); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := repo.Get(ctx, src.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != src.Name || got.Kind != src.Kind || got.Query != src.Query || got.Quality != src.Quality {
		t.Errorf("Get() = %+v, want %+v", got, src)
	}
	if !got.AddedAt.Equal(src.AddedAt) {
		t.Errorf("AddedAt = %v, want %v", got.AddedAt, src.AddedAt)
	}

	if err := repo.Delete(ctx, src.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, src.ID); !errors.Is(err, domain.ErrSourceNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrSourceNotFound", err)
	}
}

func TestSQLiteSourceRepository_DuplicateQuery(t *testing.T) {
	repo := newSourceRepo(t)
	ctx := context.Background()

	add := func() error {
		return repo.Add(ctx, &domain.TrackedSource{
			ID:      domain.NewSourceID(),
			Name:    "feed",
			Kind:    domain.ListingModel,
			Query:   "https://example.com/feed.xml",
			AddedAt: time.Now(),
		})
	}
	if err := add(); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := add(); !errors.Is(err, domain.ErrDuplicateSource) {
		t.Errorf("Add() duplicate error = %v, want ErrDuplicateSource", err)
	}
}

func TestSQLiteSourceRepository_ListOrder(t *testing.T) {
	repo := newSourceRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, q := range []string{"https://a.example.com/feed", "https://b.example.com/feed", "https://c.example.com/feed"} {
		err := repo.Add(ctx, &domain.TrackedSource{
			ID:      domain.NewSourceID(),
			Name:    q,
			Kind:    domain.ListingModel,
			Query:   q,
			AddedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d sources, want 3", len(got))
	}
	if got[0].Query != "https://a.example.com/feed" || got[2].Query != "https://c.example.com/feed" {
		t.Errorf("List() order wrong: %q, %q, %q", got[0].Query, got[1].Query, got[2].Query)
	}

	if err := repo.Delete(ctx, domain.SourceID("src_missing")); !errors.Is(err, domain.ErrSourceNotFound) {
		t.Errorf("Delete() missing error = %v, want ErrSourceNotFound", err)
	}
}

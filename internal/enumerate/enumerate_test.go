package enumerate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAdapter implements provider.Adapter with pluggable listing behavior.
type fakeAdapter struct {
	kind      domain.ProviderKind
	matches   func(string) bool
	listModel func(ctx context.Context, model string) (provider.Seq, error)
	listPlay  func(ctx context.Context, url string) (provider.Seq, error)
	search    func(ctx context.Context, query string) (provider.Seq, error)
}

func (f *fakeAdapter) Kind() domain.ProviderKind { return f.kind }

func (f *fakeAdapter) Match(rawURL string) bool {
	if f.matches == nil {
		return false
	}
	return f.matches(rawURL)
}

func (f *fakeAdapter) GetVideo(ctx context.Context, rawURL string) (domain.VideoReference, error) {
	return domain.VideoReference{Provider: f.kind, URL: rawURL}, nil
}

func (f *fakeAdapter) Describe(ctx context.Context, ref domain.VideoReference) (provider.Description, error) {
	return provider.Description{}, nil
}

func (f *fakeAdapter) Strategies() []provider.QualityStrategy { return nil }

func (f *fakeAdapter) DefaultQualities() []string { return domain.DefaultTierQualities() }

func (f *fakeAdapter) Unit() domain.ProgressUnit { return domain.UnitBytes }

func (f *fakeAdapter) ListModel(ctx context.Context, model string) (provider.Seq, error) {
	if f.listModel == nil {
		return nil, domain.ErrUnsupportedListing
	}
	return f.listModel(ctx, model)
}

func (f *fakeAdapter) ListPlaylist(ctx context.Context, playlistURL string) (provider.Seq, error) {
	if f.listPlay == nil {
		return nil, domain.ErrPlaylistUnsupported
	}
	return f.listPlay(ctx, playlistURL)
}

func (f *fakeAdapter) Search(ctx context.Context, query string) (provider.Seq, error) {
	if f.search == nil {
		return nil, domain.ErrUnsupportedListing
	}
	return f.search(ctx, query)
}

func (f *fakeAdapter) Transfer(ctx context.Context, ref domain.VideoReference, dest provider.TransferDest, quality string, sink provider.ProgressSink) error {
	return nil
}

func seqOf(kind domain.ProviderKind, urls ...string) provider.Seq {
	return func(yield func(domain.VideoReference, error) bool) {
		for _, u := range urls {
			if !yield(domain.VideoReference{Provider: kind, URL: u}, nil) {
				return
			}
		}
	}
}

func collectSeq(t *testing.T, seq provider.Seq) ([]domain.VideoReference, []error) {
	t.Helper()
	var refs []domain.VideoReference
	var errs []error
	for ref, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs, errs
}

func TestEnumerator_Model(t *testing.T) {
	var gotModel string
	yt := &fakeAdapter{
		kind:    domain.ProviderYouTube,
		matches: func(u string) bool { return strings.Contains(u, "youtube") },
		listModel: func(ctx context.Context, model string) (provider.Seq, error) {
			gotModel = model
			return seqOf(domain.ProviderYouTube, "https://www.youtube.com/watch?v=a"), nil
		},
	}
	feed := &fakeAdapter{
		kind:    domain.ProviderFeed,
		matches: func(u string) bool { return strings.HasSuffix(u, ".xml") },
	}

	e := NewEnumerator(provider.NewTable(yt, feed), testLogger())
	seq, err := e.Enumerate(context.Background(), domain.ListingModel, "https://www.youtube.com/channel/UCx", nil)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	refs, _ := collectSeq(t, seq)
	if len(refs) != 1 {
		t.Fatalf("len(refs) = %d, want 1", len(refs))
	}
	if gotModel != "https://www.youtube.com/channel/UCx" {
		t.Errorf("model query = %q", gotModel)
	}
}

func TestEnumerator_Model_NoProvider(t *testing.T) {
	e := NewEnumerator(provider.NewTable(), testLogger())

	_, err := e.Enumerate(context.Background(), domain.ListingModel, "https://nowhere.example.com/x", nil)
	if !errors.Is(err, domain.ErrNoProvider) {
		t.Errorf("error = %v, want ErrNoProvider", err)
	}
}

func TestEnumerator_Model_EmptyQuery(t *testing.T) {
	e := NewEnumerator(provider.NewTable(), testLogger())

	_, err := e.Enumerate(context.Background(), domain.ListingModel, "", nil)
	if !errors.Is(err, domain.ErrEmptyURL) {
		t.Errorf("error = %v, want ErrEmptyURL", err)
	}
}

func TestEnumerator_Playlist_YouTube(t *testing.T) {
	yt := &fakeAdapter{
		kind:    domain.ProviderYouTube,
		matches: func(u string) bool { return strings.Contains(u, "youtube") },
		listPlay: func(ctx context.Context, url string) (provider.Seq, error) {
			return seqOf(domain.ProviderYouTube, "https://www.youtube.com/watch?v=a", "https://www.youtube.com/watch?v=b"), nil
		},
	}

	e := NewEnumerator(provider.NewTable(yt), testLogger())
	seq, err := e.Enumerate(context.Background(), domain.ListingPlaylist, "https://www.youtube.com/playlist?list=PLx", nil)
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	refs, _ := collectSeq(t, seq)
	if len(refs) != 2 {
		t.Errorf("len(refs) = %d, want 2", len(refs))
	}
}

func TestEnumerator_Playlist_NonYouTubeRejected(t *testing.T) {
	feed := &fakeAdapter{
		kind:    domain.ProviderFeed,
		matches: func(u string) bool { return strings.HasSuffix(u, ".xml") },
		listPlay: func(ctx context.Context, url string) (provider.Seq, error) {
			t.Fatal("non-youtube playlist should never be delegated")
			return nil, nil
		},
	}

	e := NewEnumerator(provider.NewTable(feed), testLogger())
	_, err := e.Enumerate(context.Background(), domain.ListingPlaylist, "https://example.com/feed.xml", nil)
	if !errors.Is(err, domain.ErrPlaylistUnsupported) {
		t.Errorf("error = %v, want ErrPlaylistUnsupported", err)
	}
}

func TestEnumerator_Search_TableOrderConcatenation(t *testing.T) {
	yt := &fakeAdapter{
		kind: domain.ProviderYouTube,
		search: func(ctx context.Context, query string) (provider.Seq, error) {
			return seqOf(domain.ProviderYouTube, "yt1", "yt2"), nil
		},
	}
	feed := &fakeAdapter{
		kind: domain.ProviderFeed,
		search: func(ctx context.Context, query string) (provider.Seq, error) {
			return seqOf(domain.ProviderFeed, "feed1"), nil
		},
	}

	e := NewEnumerator(provider.NewTable(yt, feed), testLogger())

	// Request order is reversed; table order must win.
	seq, err := e.Enumerate(context.Background(), domain.ListingSearch, "space",
		[]domain.ProviderKind{domain.ProviderFeed, domain.ProviderYouTube})
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	refs, errs := collectSeq(t, seq)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []string{"yt1", "yt2", "feed1"}
	if len(refs) != len(want) {
		t.Fatalf("len(refs) = %d, want %d", len(refs), len(want))
	}
	for i := range want {
		if refs[i].URL != want[i] {
			t.Errorf("refs[%d].URL = %q, want %q", i, refs[i].URL, want[i])
		}
	}
}

func TestEnumerator_Search_EmptySelection(t *testing.T) {
	yt := &fakeAdapter{kind: domain.ProviderYouTube}

	e := NewEnumerator(provider.NewTable(yt), testLogger())
	seq, err := e.Enumerate(context.Background(), domain.ListingSearch, "space", nil)
	if err != nil {
		t.Fatalf("empty selection should not error, got %v", err)
	}

	refs, errs := collectSeq(t, seq)
	if len(refs) != 0 || len(errs) != 0 {
		t.Errorf("expected an exhausted sequence, got %d refs %d errs", len(refs), len(errs))
	}
}

func TestEnumerator_Search_ProviderFailureContinues(t *testing.T) {
	broken := &fakeAdapter{
		kind: domain.ProviderYouTube,
		search: func(ctx context.Context, query string) (provider.Seq, error) {
			return nil, errors.New("search backend down")
		},
	}
	working := &fakeAdapter{
		kind: domain.ProviderFeed,
		search: func(ctx context.Context, query string) (provider.Seq, error) {
			return seqOf(domain.ProviderFeed, "feed1"), nil
		},
	}

	e := NewEnumerator(provider.NewTable(broken, working), testLogger())
	seq, err := e.Enumerate(context.Background(), domain.ListingSearch, "space",
		[]domain.ProviderKind{domain.ProviderYouTube, domain.ProviderFeed})
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	refs, errs := collectSeq(t, seq)
	if len(errs) != 1 {
		t.Errorf("len(errs) = %d, want 1 from the broken provider", len(errs))
	}
	if len(refs) != 1 || refs[0].URL != "feed1" {
		t.Errorf("refs = %v, want the working provider's item", refs)
	}
}

func TestEnumerator_Search_LazyAcrossProviders(t *testing.T) {
	secondCalled := false
	first := &fakeAdapter{
		kind: domain.ProviderYouTube,
		search: func(ctx context.Context, query string) (provider.Seq, error) {
			return seqOf(domain.ProviderYouTube, "yt1", "yt2"), nil
		},
	}
	second := &fakeAdapter{
		kind: domain.ProviderFeed,
		search: func(ctx context.Context, query string) (provider.Seq, error) {
			secondCalled = true
			return seqOf(domain.ProviderFeed, "feed1"), nil
		},
	}

	e := NewEnumerator(provider.NewTable(first, second), testLogger())
	seq, err := e.Enumerate(context.Background(), domain.ListingSearch, "space",
		[]domain.ProviderKind{domain.ProviderYouTube, domain.ProviderFeed})
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}

	for ref, itemErr := range seq {
		if itemErr != nil {
			t.Fatalf("unexpected error: %v", itemErr)
		}
		if ref.URL == "yt1" {
			break
		}
	}
	if secondCalled {
		t.Error("second provider should not be contacted before its turn")
	}
}

func TestEnumerator_UnknownKind(t *testing.T) {
	e := NewEnumerator(provider.NewTable(), testLogger())

	_, err := e.Enumerate(context.Background(), domain.ListingKind("firehose"), "x", nil)
	if err == nil {
		t.Fatal("expected error for unknown listing kind")
	}
}

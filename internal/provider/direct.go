package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/fetch"
)

// DirectAdapter handles bare media file URLs. A direct URL names exactly
// one rendition, so the tier default set stands in for qualities and the
// requested token does not change what is fetched. Progress is reported
// in bytes and output goes to the exact destination path.
type DirectAdapter struct {
	client  *fetch.Client
	limiter *Limiter
	logger  *slog.Logger
}

// NewDirectAdapter creates the direct file adapter.
func NewDirectAdapter(client *fetch.Client, limiter *Limiter, logger *slog.Logger) *DirectAdapter {
	return &DirectAdapter{client: client, limiter: limiter, logger: logger}
}

// Kind implements Adapter.
func (a *DirectAdapter) Kind() domain.ProviderKind { return domain.ProviderDirect }

// Match implements Adapter.
func (a *DirectAdapter) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return domain.IsMediaFile(u.Path)
}

// GetVideo implements Adapter. The URL is probed so broken links fail at
// request time instead of mid-transfer.
func (a *DirectAdapter) GetVideo(ctx context.Context, rawURL string) (domain.VideoReference, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return domain.VideoReference{}, err
	}
	probe, err := a.client.Probe(ctx, rawURL)
	if err != nil {
		return domain.VideoReference{}, domain.NewProviderError(a.Kind(), "get_video", err)
	}
	if !probe.Accessible {
		return domain.VideoReference{}, domain.NewProviderError(a.Kind(), "get_video",
			fmt.Errorf("%w: %s", domain.ErrDownloadFailed, probe.Error))
	}
	return domain.VideoReference{
		Provider: a.Kind(),
		URL:      rawURL,
		Raw:      probe,
	}, nil
}

// Describe implements Adapter. A bare file URL carries nothing beyond its
// name.
func (a *DirectAdapter) Describe(ctx context.Context, ref domain.VideoReference) (Description, error) {
	u, err := url.Parse(ref.URL)
	if err != nil {
		return Description{}, domain.NewProviderError(a.Kind(), "describe", err)
	}
	name := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	return Description{Title: name}, nil
}

// Strategies implements Adapter. Direct URLs expose no quality listing.
func (a *DirectAdapter) Strategies() []QualityStrategy { return nil }

// DefaultQualities implements Adapter.
func (a *DirectAdapter) DefaultQualities() []string {
	return domain.DefaultTierQualities()
}

// Unit implements Adapter.
func (a *DirectAdapter) Unit() domain.ProgressUnit { return domain.UnitBytes }

// ListModel implements Adapter.
func (a *DirectAdapter) ListModel(ctx context.Context, model string) (Seq, error) {
	return nil, domain.NewProviderError(a.Kind(), "list_model", domain.ErrUnsupportedListing)
}

// ListPlaylist implements Adapter.
func (a *DirectAdapter) ListPlaylist(ctx context.Context, playlistURL string) (Seq, error) {
	return nil, domain.NewProviderError(a.Kind(), "list_playlist", domain.ErrPlaylistUnsupported)
}

// Search implements Adapter.
func (a *DirectAdapter) Search(ctx context.Context, query string) (Seq, error) {
	return nil, domain.NewProviderError(a.Kind(), "search", domain.ErrUnsupportedListing)
}

// Transfer implements Adapter. The quality token is accepted and ignored;
// there is only one rendition behind a direct URL.
func (a *DirectAdapter) Transfer(ctx context.Context, ref domain.VideoReference, dest TransferDest, quality string, sink ProgressSink) error {
	if ref.URL == "" {
		return domain.ErrEmptyURL
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	var report func(written, total int64)
	if sink != nil {
		report = func(written, total int64) { sink.Report(written, total) }
	}
	if _, err := a.client.SaveTo(ctx, ref.URL, dest.Path(), report); err != nil {
		return domain.NewProviderError(a.Kind(), "transfer", err)
	}
	return nil
}

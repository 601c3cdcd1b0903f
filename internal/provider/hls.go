package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grafov/m3u8"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/fetch"
)

// HLSAdapter handles direct HLS manifest URLs. Master playlists expose one
// quality token per variant resolution; plain media playlists expose none
// and fall back to the default set. Progress is reported in segments, and
// output is written into the destination directory under a name derived
// from the manifest, so the caller reconciles the final filename.
type HLSAdapter struct {
	client  *fetch.Client
	limiter *Limiter
	logger  *slog.Logger
}

// hlsManifest is the adapter's native handle: a parsed manifest plus the
// URL it was fetched from, for resolving relative variant and segment URIs.
type hlsManifest struct {
	base   *url.URL
	master *m3u8.MasterPlaylist
	media  *m3u8.MediaPlaylist
}

// NewHLSAdapter creates the HLS adapter.
func NewHLSAdapter(client *fetch.Client, limiter *Limiter, logger *slog.Logger) *HLSAdapter {
	return &HLSAdapter{client: client, limiter: limiter, logger: logger}
}

// Kind implements Adapter.
func (a *HLSAdapter) Kind() domain.ProviderKind { return domain.ProviderHLS }

// Match implements Adapter.
func (a *HLSAdapter) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".m3u8")
}

// GetVideo implements Adapter. The manifest is fetched and parsed up front
// so later stages work from the same handle.
func (a *HLSAdapter) GetVideo(ctx context.Context, rawURL string) (domain.VideoReference, error) {
	man, err := a.fetchManifest(ctx, rawURL)
	if err != nil {
		return domain.VideoReference{}, domain.NewProviderError(a.Kind(), "get_video", err)
	}
	return domain.VideoReference{
		Provider: a.Kind(),
		URL:      rawURL,
		Raw:      man,
	}, nil
}

// Describe implements Adapter. Manifests carry no title or author; the
// title falls back to the manifest's base name. Media playlist durations
// are summed from the segment durations.
func (a *HLSAdapter) Describe(ctx context.Context, ref domain.VideoReference) (Description, error) {
	man, err := a.resolveManifest(ctx, ref)
	if err != nil {
		return Description{}, domain.NewProviderError(a.Kind(), "describe", err)
	}

	desc := Description{Title: manifestName(man.base)}
	if man.media != nil {
		var total float64
		for _, seg := range collectSegments(man.media) {
			total += seg.Duration
		}
		desc.Duration = total
	}
	return desc, nil
}

// Strategies implements Adapter.
func (a *HLSAdapter) Strategies() []QualityStrategy {
	return []QualityStrategy{
		{Name: "master_variants", Extract: a.variantQualities},
	}
}

func (a *HLSAdapter) variantQualities(ctx context.Context, ref domain.VideoReference) ([]string, error) {
	man, err := a.resolveManifest(ctx, ref)
	if err != nil {
		return nil, err
	}
	if man.master == nil {
		return nil, nil
	}
	return variantTokens(man.master.Variants), nil
}

// DefaultQualities implements Adapter.
func (a *HLSAdapter) DefaultQualities() []string {
	return domain.DefaultResolutionQualities()
}

// Unit implements Adapter.
func (a *HLSAdapter) Unit() domain.ProgressUnit { return domain.UnitSegments }

// ListModel implements Adapter.
func (a *HLSAdapter) ListModel(ctx context.Context, model string) (Seq, error) {
	return nil, domain.NewProviderError(a.Kind(), "list_model", domain.ErrUnsupportedListing)
}

// ListPlaylist implements Adapter.
func (a *HLSAdapter) ListPlaylist(ctx context.Context, playlistURL string) (Seq, error) {
	return nil, domain.NewProviderError(a.Kind(), "list_playlist", domain.ErrPlaylistUnsupported)
}

// Search implements Adapter.
func (a *HLSAdapter) Search(ctx context.Context, query string) (Seq, error) {
	return nil, domain.NewProviderError(a.Kind(), "search", domain.ErrUnsupportedListing)
}

// Transfer implements Adapter. Segments are appended in order into a
// single transport-stream file inside dest.Dir.
func (a *HLSAdapter) Transfer(ctx context.Context, ref domain.VideoReference, dest TransferDest, quality string, sink ProgressSink) error {
	man, err := a.resolveManifest(ctx, ref)
	if err != nil {
		return domain.NewProviderError(a.Kind(), "transfer", err)
	}

	media := man.media
	mediaBase := man.base
	if man.master != nil {
		variant := chooseVariant(man.master.Variants, quality)
		if variant == nil {
			return domain.NewProviderError(a.Kind(), "transfer", fmt.Errorf("master playlist has no variants"))
		}

		variantURL := resolveRef(man.base, variant.URI)
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		body, err := a.client.Fetch(ctx, variantURL.String())
		if err != nil {
			return domain.NewProviderError(a.Kind(), "transfer", err)
		}
		playlist, _, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
		if err != nil {
			return domain.NewProviderError(a.Kind(), "transfer", fmt.Errorf("decode variant playlist: %w", err))
		}
		mp, ok := playlist.(*m3u8.MediaPlaylist)
		if !ok {
			return domain.NewProviderError(a.Kind(), "transfer", fmt.Errorf("expected media playlist at %s", variantURL))
		}
		media = mp
		mediaBase = variantURL
	}
	if media == nil {
		return domain.NewProviderError(a.Kind(), "transfer", fmt.Errorf("manifest has no media playlist"))
	}

	segs := collectSegments(media)
	if len(segs) == 0 {
		return domain.NewProviderError(a.Kind(), "transfer", fmt.Errorf("media playlist has no segments"))
	}

	outPath := filepath.Join(dest.Dir, manifestName(man.base)+".ts")
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	total := int64(len(segs))
	for i, seg := range segs {
		if err := ctx.Err(); err != nil {
			f.Close()
			return err
		}

		segURL := resolveRef(mediaBase, seg.URI)
		rc, _, err := a.client.Stream(ctx, segURL.String())
		if err != nil {
			f.Close()
			return domain.NewProviderError(a.Kind(), "transfer", fmt.Errorf("segment %d: %w", i+1, err))
		}
		_, cerr := io.Copy(f, rc)
		rc.Close()
		if cerr != nil {
			f.Close()
			return domain.NewProviderError(a.Kind(), "transfer", fmt.Errorf("segment %d: %w", i+1, cerr))
		}

		if sink != nil {
			sink.Report(int64(i+1), total)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func (a *HLSAdapter) resolveManifest(ctx context.Context, ref domain.VideoReference) (*hlsManifest, error) {
	if man, ok := ref.Raw.(*hlsManifest); ok {
		return man, nil
	}
	if ref.URL == "" {
		return nil, domain.ErrEmptyURL
	}
	return a.fetchManifest(ctx, ref.URL)
}

func (a *HLSAdapter) fetchManifest(ctx context.Context, rawURL string) (*hlsManifest, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse manifest url: %w", err)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := a.client.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	playlist, _, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	man := &hlsManifest{base: base}
	switch p := playlist.(type) {
	case *m3u8.MasterPlaylist:
		man.master = p
	case *m3u8.MediaPlaylist:
		man.media = p
	default:
		return nil, fmt.Errorf("unrecognized playlist type at %s", rawURL)
	}
	return man, nil
}

// chooseVariant picks the variant whose resolution height matches the
// quality token, falling back to the highest-bandwidth variant.
func chooseVariant(variants []*m3u8.Variant, quality string) *m3u8.Variant {
	if len(variants) == 0 {
		return nil
	}

	sorted := make([]*m3u8.Variant, len(variants))
	copy(sorted, variants)
	sort.Slice(sorted, func(x, y int) bool {
		return sorted[x].Bandwidth > sorted[y].Bandwidth
	})

	want := strings.TrimSuffix(strings.ToLower(quality), "p")
	for _, v := range sorted {
		if v == nil {
			continue
		}
		if strings.HasSuffix(v.Resolution, "x"+want) {
			return v
		}
	}
	return sorted[0]
}

// variantTokens derives resolution quality tokens from master variants,
// highest bandwidth first.
func variantTokens(variants []*m3u8.Variant) []string {
	sorted := make([]*m3u8.Variant, 0, len(variants))
	for _, v := range variants {
		if v != nil {
			sorted = append(sorted, v)
		}
	}
	sort.Slice(sorted, func(x, y int) bool {
		return sorted[x].Bandwidth > sorted[y].Bandwidth
	})

	tokens := make([]string, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, v := range sorted {
		parts := strings.SplitN(v.Resolution, "x", 2)
		if len(parts) != 2 || parts[1] == "" {
			continue
		}
		token := parts[1] + "p"
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

// collectSegments gathers the populated prefix of a media playlist's
// segment slice, which is nil-terminated.
func collectSegments(media *m3u8.MediaPlaylist) []*m3u8.MediaSegment {
	segs := make([]*m3u8.MediaSegment, 0, len(media.Segments))
	for _, seg := range media.Segments {
		if seg == nil {
			break
		}
		segs = append(segs, seg)
	}
	return segs
}

// resolveRef resolves a possibly-relative playlist URI against its parent
// URL. Query parameters on the parent carry over to bare URIs, which keeps
// signed manifest URLs working.
func resolveRef(base *url.URL, uri string) *url.URL {
	ref, err := url.Parse(uri)
	if err != nil {
		return base
	}
	resolved := base.ResolveReference(ref)
	if resolved.RawQuery == "" && base.RawQuery != "" {
		resolved.RawQuery = base.RawQuery
	}
	return resolved
}

// manifestName returns the manifest base name without extension.
func manifestName(base *url.URL) string {
	name := strings.TrimSuffix(path.Base(base.Path), path.Ext(base.Path))
	if name == "" || name == "." || name == "/" {
		return "stream"
	}
	return name
}

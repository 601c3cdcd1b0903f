package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// YouTubeClient is the slice of the YouTube client API the adapter relies
// on. Decoupled from the concrete youtube.Client type so tests can
// substitute a mock.
type YouTubeClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetPlaylistContext(ctx context.Context, url string) (*youtube.Playlist, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
	VideoFromPlaylistEntryContext(ctx context.Context, entry *youtube.PlaylistEntry) (*youtube.Video, error)
}

// YouTubeAdapter integrates YouTube through the kkdai client library. It is
// the only adapter with playlist support; channel listings go through the
// channel's uploads playlist. Progress is reported in bytes and output is
// written to the exact destination path.
type YouTubeAdapter struct {
	client  YouTubeClient
	limiter *Limiter
	logger  *slog.Logger
}

// NewYouTubeAdapter creates the YouTube adapter. The underlying client has
// no overall timeout; streamed downloads rely on header timeouts instead.
func NewYouTubeAdapter(limiter *Limiter, logger *slog.Logger) *YouTubeAdapter {
	return &YouTubeAdapter{
		client: &youtube.Client{
			HTTPClient: &http.Client{
				Transport: &http.Transport{ResponseHeaderTimeout: 30 * time.Second},
			},
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Kind implements Adapter.
func (a *YouTubeAdapter) Kind() domain.ProviderKind { return domain.ProviderYouTube }

// Match implements Adapter.
func (a *YouTubeAdapter) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
		return true
	}
	return false
}

// GetVideo implements Adapter.
func (a *YouTubeAdapter) GetVideo(ctx context.Context, rawURL string) (domain.VideoReference, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return domain.VideoReference{}, err
	}
	video, err := a.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return domain.VideoReference{}, domain.NewProviderError(a.Kind(), "get_video", err)
	}
	return domain.VideoReference{
		Provider: a.Kind(),
		URL:      watchURL(video.ID),
		Raw:      video,
	}, nil
}

// Describe implements Adapter.
func (a *YouTubeAdapter) Describe(ctx context.Context, ref domain.VideoReference) (Description, error) {
	video, err := a.resolveVideo(ctx, ref)
	if err != nil {
		return Description{}, domain.NewProviderError(a.Kind(), "describe", err)
	}

	desc := Description{
		Title:     video.Title,
		Author:    video.Author,
		Duration:  video.Duration,
		Thumbnail: bestThumbnailURL(video.Thumbnails),
	}
	if !video.PublishDate.IsZero() {
		desc.PublishDate = video.PublishDate.Format("2006-01-02")
	}
	return desc, nil
}

// Strategies implements Adapter. Format labels move between releases of
// the client library, so the fallback chain refetches before giving up.
func (a *YouTubeAdapter) Strategies() []QualityStrategy {
	return []QualityStrategy{
		{Name: "progressive_formats", Extract: a.progressiveQualities},
		{Name: "refetch_formats", Extract: a.refetchQualities},
		{Name: "all_formats", Extract: a.allQualities},
	}
}

func (a *YouTubeAdapter) progressiveQualities(ctx context.Context, ref domain.VideoReference) ([]string, error) {
	video, ok := ref.Raw.(*youtube.Video)
	if !ok {
		return nil, nil
	}
	return qualityLabels(progressiveFormats(video)), nil
}

func (a *YouTubeAdapter) refetchQualities(ctx context.Context, ref domain.VideoReference) ([]string, error) {
	if ref.URL == "" {
		return nil, nil
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	video, err := a.client.GetVideoContext(ctx, ref.URL)
	if err != nil {
		return nil, err
	}
	return qualityLabels(progressiveFormats(video)), nil
}

func (a *YouTubeAdapter) allQualities(ctx context.Context, ref domain.VideoReference) ([]string, error) {
	video, err := a.resolveVideo(ctx, ref)
	if err != nil {
		return nil, err
	}
	return qualityLabels(video.Formats), nil
}

// DefaultQualities implements Adapter.
func (a *YouTubeAdapter) DefaultQualities() []string {
	return domain.DefaultResolutionQualities()
}

// Unit implements Adapter.
func (a *YouTubeAdapter) Unit() domain.ProgressUnit { return domain.UnitBytes }

// ListModel enumerates a channel's uploads. Accepts /channel/UC... URLs or
// bare UC channel ids; the uploads playlist shares the channel id with a
// UU prefix.
func (a *YouTubeAdapter) ListModel(ctx context.Context, model string) (Seq, error) {
	id := channelID(model)
	if id == "" {
		return nil, domain.NewProviderError(a.Kind(), "list_model", fmt.Errorf("no channel id in %q", model))
	}
	uploads := "UU" + strings.TrimPrefix(id, "UC")
	return a.ListPlaylist(ctx, "https://www.youtube.com/playlist?list="+uploads)
}

// ListPlaylist implements Adapter. Entries are resolved into full videos
// lazily, one at a time, when the pipeline needs their metadata.
func (a *YouTubeAdapter) ListPlaylist(ctx context.Context, playlistURL string) (Seq, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	playlist, err := a.client.GetPlaylistContext(ctx, playlistURL)
	if err != nil {
		return nil, domain.NewProviderError(a.Kind(), "list_playlist", err)
	}

	entries := playlist.Videos
	return func(yield func(domain.VideoReference, error) bool) {
		for _, entry := range entries {
			if entry == nil || entry.ID == "" {
				continue
			}
			ref := domain.VideoReference{
				Provider: a.Kind(),
				URL:      watchURL(entry.ID),
				Raw:      entry,
			}
			if !yield(ref, nil) {
				return
			}
		}
	}, nil
}

// Search implements Adapter. YouTube exposes no search endpoint through
// the client library.
func (a *YouTubeAdapter) Search(ctx context.Context, query string) (Seq, error) {
	return nil, domain.NewProviderError(a.Kind(), "search", domain.ErrUnsupportedListing)
}

// Transfer implements Adapter. Picks the progressive format matching the
// quality label and streams it to the exact destination path.
func (a *YouTubeAdapter) Transfer(ctx context.Context, ref domain.VideoReference, dest TransferDest, quality string, sink ProgressSink) error {
	video, err := a.resolveVideo(ctx, ref)
	if err != nil {
		return domain.NewProviderError(a.Kind(), "transfer", err)
	}

	format, err := pickFormat(video, quality)
	if err != nil {
		return domain.NewProviderError(a.Kind(), "transfer", err)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	stream, size, err := a.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return domain.NewProviderError(a.Kind(), "transfer", err)
	}
	defer stream.Close()
	if size <= 0 && format.ContentLength > 0 {
		size = format.ContentLength
	}

	f, err := os.Create(dest.Path())
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	buf := make([]byte, 256*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			f.Close()
			return err
		}

		n, rerr := stream.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				return fmt.Errorf("write output file: %w", werr)
			}
			written += int64(n)
			if sink != nil {
				sink.Report(written, size)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			return domain.NewProviderError(a.Kind(), "transfer", rerr)
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

// resolveVideo turns whatever handle the reference carries into a full
// video, refetching by URL when the handle is missing or partial.
func (a *YouTubeAdapter) resolveVideo(ctx context.Context, ref domain.VideoReference) (*youtube.Video, error) {
	switch raw := ref.Raw.(type) {
	case *youtube.Video:
		return raw, nil
	case *youtube.PlaylistEntry:
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return a.client.VideoFromPlaylistEntryContext(ctx, raw)
	}

	if ref.URL == "" {
		return nil, domain.ErrEmptyURL
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return a.client.GetVideoContext(ctx, ref.URL)
}

// pickFormat returns the progressive format carrying the quality label, or
// the first progressive format when no label matches.
func pickFormat(video *youtube.Video, quality string) (*youtube.Format, error) {
	candidates := progressiveFormats(video)
	if len(candidates) == 0 {
		candidates = video.Formats
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoQualities
	}

	for i := range candidates {
		if strings.EqualFold(formatLabel(candidates[i]), quality) {
			return &candidates[i], nil
		}
	}
	return &candidates[0], nil
}

// progressiveFormats filters to formats carrying both audio and video.
func progressiveFormats(video *youtube.Video) []youtube.Format {
	out := make([]youtube.Format, 0, len(video.Formats))
	for i := range video.Formats {
		f := video.Formats[i]
		if f.AudioChannels > 0 && f.Width > 0 && f.Height > 0 {
			out = append(out, f)
		}
	}
	return out
}

// qualityLabels collects distinct quality labels in format order.
func qualityLabels(formats []youtube.Format) []string {
	labels := make([]string, 0, len(formats))
	seen := make(map[string]struct{}, len(formats))
	for i := range formats {
		qual := formatLabel(formats[i])
		if qual == "" {
			continue
		}
		if _, ok := seen[qual]; ok {
			continue
		}
		seen[qual] = struct{}{}
		labels = append(labels, qual)
	}
	return labels
}

func formatLabel(f youtube.Format) string {
	if f.QualityLabel != "" {
		return f.QualityLabel
	}
	return f.Quality
}

func bestThumbnailURL(thumbnails youtube.Thumbnails) string {
	bestURL := ""
	var bestArea uint
	for _, thumb := range thumbnails {
		area := thumb.Width * thumb.Height
		if area >= bestArea {
			bestArea = area
			bestURL = thumb.URL
		}
	}
	return bestURL
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// channelID extracts a UC channel id from a channel URL or bare id string.
func channelID(model string) string {
	s := model
	if i := strings.Index(s, "/channel/"); i >= 0 {
		s = s[i+len("/channel/"):]
		if j := strings.IndexAny(s, "/?&"); j >= 0 {
			s = s[:j]
		}
	}
	if strings.HasPrefix(s, "UC") {
		return s
	}
	return ""
}

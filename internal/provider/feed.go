package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/fetch"
)

// FeedAdapter serves RSS and Atom feeds carrying media enclosures. A feed
// URL acts as the model; search scans the configured feed set and filters
// item titles. Feed items carry the richest free-text metadata of any
// adapter, including colon-form durations from podcast extensions.
type FeedAdapter struct {
	client   *fetch.Client
	feedURLs []string
	limiter  *Limiter
	logger   *slog.Logger
}

// feedItem is the adapter's native handle for one enclosure entry.
type feedItem struct {
	Title     string
	Author    string
	MediaURL  string
	PageURL   string
	Duration  string
	Tags      []string
	Published string
	Thumbnail string
}

// NewFeedAdapter creates the feed adapter over the configured feed set.
func NewFeedAdapter(client *fetch.Client, feedURLs []string, limiter *Limiter, logger *slog.Logger) *FeedAdapter {
	return &FeedAdapter{client: client, feedURLs: feedURLs, limiter: limiter, logger: logger}
}

// Kind implements Adapter.
func (a *FeedAdapter) Kind() domain.ProviderKind { return domain.ProviderFeed }

// Match implements Adapter. Registered last, so media file URLs inside
// feeds classify as direct transfers first.
func (a *FeedAdapter) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	if strings.HasSuffix(p, ".rss") || strings.HasSuffix(p, ".atom") || strings.HasSuffix(p, ".xml") {
		return true
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "feed" || seg == "rss" {
			return true
		}
	}
	return false
}

// GetVideo implements Adapter. A feed URL resolves to its newest entry,
// which feeds list first by convention.
func (a *FeedAdapter) GetVideo(ctx context.Context, rawURL string) (domain.VideoReference, error) {
	items, err := a.fetchItems(ctx, rawURL)
	if err != nil {
		return domain.VideoReference{}, domain.NewProviderError(a.Kind(), "get_video", err)
	}
	for i := range items {
		if items[i].MediaURL != "" {
			return a.itemRef(&items[i]), nil
		}
	}
	return domain.VideoReference{}, domain.NewProviderError(a.Kind(), "get_video",
		fmt.Errorf("feed has no media enclosures: %s", rawURL))
}

// Describe implements Adapter.
func (a *FeedAdapter) Describe(ctx context.Context, ref domain.VideoReference) (Description, error) {
	item, ok := ref.Raw.(*feedItem)
	if !ok {
		return Description{}, domain.NewProviderError(a.Kind(), "describe",
			fmt.Errorf("reference carries no feed entry"))
	}
	return Description{
		Title:       item.Title,
		Author:      item.Author,
		Duration:    item.Duration,
		Tags:        item.Tags,
		PublishDate: item.Published,
		Thumbnail:   item.Thumbnail,
	}, nil
}

// Strategies implements Adapter. Enclosures are single-rendition.
func (a *FeedAdapter) Strategies() []QualityStrategy { return nil }

// DefaultQualities implements Adapter.
func (a *FeedAdapter) DefaultQualities() []string {
	return domain.DefaultTierQualities()
}

// Unit implements Adapter.
func (a *FeedAdapter) Unit() domain.ProgressUnit { return domain.UnitBytes }

// ListModel implements Adapter. The model is a feed URL.
func (a *FeedAdapter) ListModel(ctx context.Context, model string) (Seq, error) {
	items, err := a.fetchItems(ctx, model)
	if err != nil {
		return nil, domain.NewProviderError(a.Kind(), "list_model", err)
	}
	return func(yield func(domain.VideoReference, error) bool) {
		for i := range items {
			if items[i].MediaURL == "" {
				continue
			}
			if !yield(a.itemRef(&items[i]), nil) {
				return
			}
		}
	}, nil
}

// ListPlaylist implements Adapter.
func (a *FeedAdapter) ListPlaylist(ctx context.Context, playlistURL string) (Seq, error) {
	return nil, domain.NewProviderError(a.Kind(), "list_playlist", domain.ErrPlaylistUnsupported)
}

// Search implements Adapter. Scans the configured feeds in order, feed by
// feed, keeping entries whose title contains the query. Feeds are fetched
// lazily as iteration reaches them; a failing feed yields its error and
// iteration moves to the next feed.
func (a *FeedAdapter) Search(ctx context.Context, query string) (Seq, error) {
	feeds := a.feedURLs
	needle := strings.ToLower(query)
	return func(yield func(domain.VideoReference, error) bool) {
		for _, feedURL := range feeds {
			items, err := a.fetchItems(ctx, feedURL)
			if err != nil {
				if !yield(domain.VideoReference{}, domain.NewProviderError(a.Kind(), "search", err)) {
					return
				}
				continue
			}
			for i := range items {
				if items[i].MediaURL == "" {
					continue
				}
				if needle != "" && !strings.Contains(strings.ToLower(items[i].Title), needle) {
					continue
				}
				if !yield(a.itemRef(&items[i]), nil) {
					return
				}
			}
		}
	}, nil
}

// Transfer implements Adapter. Streams the enclosure to the exact
// destination path; the quality token is accepted and ignored.
func (a *FeedAdapter) Transfer(ctx context.Context, ref domain.VideoReference, dest TransferDest, quality string, sink ProgressSink) error {
	target := ref.URL
	if item, ok := ref.Raw.(*feedItem); ok && item.MediaURL != "" {
		target = item.MediaURL
	}
	if target == "" {
		return domain.ErrEmptyURL
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	var report func(written, total int64)
	if sink != nil {
		report = func(written, total int64) { sink.Report(written, total) }
	}
	if _, err := a.client.SaveTo(ctx, target, dest.Path(), report); err != nil {
		return domain.NewProviderError(a.Kind(), "transfer", err)
	}
	return nil
}

func (a *FeedAdapter) itemRef(item *feedItem) domain.VideoReference {
	return domain.VideoReference{
		Provider: a.Kind(),
		URL:      item.MediaURL,
		Raw:      item,
	}
}

func (a *FeedAdapter) fetchItems(ctx context.Context, feedURL string) ([]feedItem, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := a.client.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	return parseFeed(body)
}

// RSS 2.0 document with the podcast and media extensions feeds commonly
// carry.
type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title     string       `xml:"title"`
	Link      string       `xml:"link"`
	Author    string       `xml:"author"`
	Creator   string       `xml:"http://purl.org/dc/elements/1.1/ creator"`
	PubDate   string       `xml:"pubDate"`
	Duration  string       `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	Keywords  string       `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd keywords"`
	Image     rssImage     `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
	Enclosure rssEnclosure `xml:"enclosure"`
	Media     rssMedia     `xml:"http://search.yahoo.com/mrss/ content"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length int64  `xml:"length,attr"`
}

type rssMedia struct {
	URL string `xml:"url,attr"`
}

type rssImage struct {
	Href string `xml:"href,attr"`
}

// Minimal Atom document; the enclosure rides on a rel="enclosure" link.
type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
	Author    atomAuthor `xml:"author"`
	Links     []atomLink `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

// parseFeed decodes an RSS or Atom document into adapter items.
func parseFeed(body []byte) ([]feedItem, error) {
	var rss rssDocument
	if err := xml.Unmarshal(body, &rss); err == nil && len(rss.Channel.Items) > 0 {
		items := make([]feedItem, 0, len(rss.Channel.Items))
		for _, it := range rss.Channel.Items {
			items = append(items, rssToItem(it))
		}
		return items, nil
	}

	var atom atomFeed
	if err := xml.Unmarshal(body, &atom); err == nil && len(atom.Entries) > 0 {
		items := make([]feedItem, 0, len(atom.Entries))
		for _, entry := range atom.Entries {
			items = append(items, atomToItem(entry))
		}
		return items, nil
	}

	return nil, fmt.Errorf("no recognizable feed entries")
}

func rssToItem(it rssItem) feedItem {
	author := it.Author
	if author == "" {
		author = it.Creator
	}
	mediaURL := it.Enclosure.URL
	if mediaURL == "" {
		mediaURL = it.Media.URL
	}

	var tags []string
	for _, kw := range strings.Split(it.Keywords, ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			tags = append(tags, kw)
		}
	}

	return feedItem{
		Title:     it.Title,
		Author:    author,
		MediaURL:  mediaURL,
		PageURL:   it.Link,
		Duration:  it.Duration,
		Tags:      tags,
		Published: it.PubDate,
		Thumbnail: it.Image.Href,
	}
}

func atomToItem(entry atomEntry) feedItem {
	published := entry.Published
	if published == "" {
		published = entry.Updated
	}

	item := feedItem{
		Title:     entry.Title,
		Author:    entry.Author.Name,
		Published: published,
	}
	for _, link := range entry.Links {
		switch link.Rel {
		case "enclosure":
			item.MediaURL = link.Href
		case "alternate", "":
			if item.PageURL == "" {
				item.PageURL = link.Href
			}
		}
	}
	return item
}

// Package normalize reduces provider-native metadata to the canonical
// record every later pipeline stage consumes.
package normalize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mediahaul/mediahaul/internal/domain"
	"github.com/mediahaul/mediahaul/internal/provider"
)

// Normalizer builds canonical metadata records. It never returns an error:
// extraction failures, including panics inside provider strategy code,
// produce a degraded record that still carries a usable quality list so the
// transfer pipeline can proceed.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Canonical builds the full canonical record for a reference.
func (n *Normalizer) Canonical(ctx context.Context, adapter provider.Adapter, ref domain.VideoReference) domain.CanonicalMetadata {
	qualities := n.qualities(ctx, adapter, ref)

	desc, err := n.describe(ctx, adapter, ref)
	if err != nil {
		n.logger.Warn("metadata extraction failed, continuing degraded",
			"provider", adapter.Kind(), "url", ref.URL, "error", err)
		return domain.CanonicalMetadata{
			Title:     domain.PlaceholderTitle,
			Qualities: qualities,
		}
	}

	return domain.CanonicalMetadata{
		Title:         desc.Title,
		Author:        desc.Author,
		LengthSeconds: ParseSeconds(desc.Duration),
		Tags:          desc.Tags,
		PublishDate:   desc.PublishDate,
		Thumbnail:     desc.Thumbnail,
		Qualities:     qualities,
	}
}

// Lite builds the reduced listing record for a reference. Failed entries
// keep their URL under the placeholder title instead of being dropped.
func (n *Normalizer) Lite(ctx context.Context, adapter provider.Adapter, ref domain.VideoReference) domain.LiteRecord {
	desc, err := n.describe(ctx, adapter, ref)
	if err != nil {
		n.logger.Debug("listing metadata failed",
			"provider", adapter.Kind(), "url", ref.URL, "error", err)
		return domain.LiteRecord{Title: domain.PlaceholderTitle, URL: ref.URL}
	}

	title := desc.Title
	if title == "" {
		title = domain.UntitledVideo
	}
	return domain.LiteRecord{Title: title, URL: ref.URL, Thumbnail: desc.Thumbnail}
}

// qualities runs the adapter's extraction strategies in order and keeps the
// first non-empty result. When every strategy fails or yields nothing, the
// adapter's default set is substituted so the list is never empty.
func (n *Normalizer) qualities(ctx context.Context, adapter provider.Adapter, ref domain.VideoReference) []string {
	for _, strategy := range adapter.Strategies() {
		tokens, err := n.runStrategy(ctx, strategy, ref)
		if err != nil {
			n.logger.Debug("quality strategy failed",
				"provider", adapter.Kind(), "strategy", strategy.Name, "error", err)
			continue
		}
		if deduped := dedupTokens(tokens); len(deduped) > 0 {
			return deduped
		}
	}
	return adapter.DefaultQualities()
}

func (n *Normalizer) runStrategy(ctx context.Context, strategy provider.QualityStrategy, ref domain.VideoReference) (tokens []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", strategy.Name, r)
		}
	}()
	return strategy.Extract(ctx, ref)
}

func (n *Normalizer) describe(ctx context.Context, adapter provider.Adapter, ref domain.VideoReference) (desc provider.Description, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("describe panicked: %v", r)
		}
	}()
	return adapter.Describe(ctx, ref)
}

// dedupTokens drops empty and repeated tokens, preserving first-seen order.
func dedupTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

package domain

// ProviderKind identifies one content-source integration.
type ProviderKind string

const (
	ProviderYouTube ProviderKind = "youtube"
	ProviderHLS     ProviderKind = "hls"
	ProviderDirect  ProviderKind = "direct"
	ProviderFeed    ProviderKind = "feed"
)

// String returns the string representation of the ProviderKind.
func (k ProviderKind) String() string {
	return string(k)
}

// QualityFamily describes the quality-naming universe an adapter speaks.
type QualityFamily string

const (
	// FamilyTier providers expose coarse best/half/worst tokens.
	FamilyTier QualityFamily = "tier"
	// FamilyResolution providers expose numeric tokens like 720p.
	FamilyResolution QualityFamily = "resolution"
)

// Tier tokens shared by every tier-based provider.
const (
	QualityBest  = "best"
	QualityHalf  = "half"
	QualityWorst = "worst"
)

// DefaultTierQualities is substituted when a tier-based provider
// exposes no quality list at all.
func DefaultTierQualities() []string {
	return []string{QualityBest, QualityHalf, QualityWorst}
}

// DefaultResolutionQualities is substituted when a resolution-based
// provider exposes no quality list at all.
func DefaultResolutionQualities() []string {
	return []string{"720p", "480p", "360p"}
}

// PlaceholderTitle marks a metadata record that could not be loaded.
// Downstream stages still receive a well-formed record carrying it.
const PlaceholderTitle = "Error: Could not load data"

// UntitledVideo is the display title used when a listing entry has none.
const UntitledVideo = "Untitled Video"

// VideoReference is an opaque handle into exactly one provider adapter.
// It lives for the duration of a single pipeline run and is never stored.
type VideoReference struct {
	Provider ProviderKind
	URL      string
	// Raw is the provider-native object backing this reference. Only the
	// adapter that produced it may interpret it.
	Raw any
}

// CanonicalMetadata is the unified, provider-independent description of one
// video. Qualities is never empty once normalization has run: when a provider
// exposes nothing, the adapter family's default set is substituted.
type CanonicalMetadata struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	LengthSeconds int      `json:"length_seconds"`
	Tags          []string `json:"tags,omitempty"`
	PublishDate   string   `json:"publish_date"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	Qualities     []string `json:"qualities"`
}

// Degraded reports whether this record is the placeholder produced after a
// metadata extraction failure.
func (m CanonicalMetadata) Degraded() bool {
	return m.Title == PlaceholderTitle
}

// LiteRecord is the reduced listing form returned by fetch-only enumeration.
type LiteRecord struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ListingKind selects which provider listing capability an enumeration uses.
type ListingKind string

const (
	// ListingModel enumerates a creator/channel page.
	ListingModel ListingKind = "model"
	// ListingPlaylist enumerates a playlist URL.
	ListingPlaylist ListingKind = "playlist"
	// ListingSearch fans out a query across search-capable providers.
	ListingSearch ListingKind = "search"
)

// Valid reports whether k is one of the defined listing kinds.
func (k ListingKind) Valid() bool {
	switch k {
	case ListingModel, ListingPlaylist, ListingSearch:
		return true
	}
	return false
}

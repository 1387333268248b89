package findmysound

// NumFeatures is the length of every feature vector. Similarity comparisons
// are positional, so the order below is an invariant across the whole system.
const NumFeatures = 9

// Feature indices, in the order the analysis provider reports them.
const (
	Acousticness = iota
	Danceability
	Energy
	Instrumentalness
	Liveness
	Loudness
	Speechiness
	Tempo
	Valence
)

// FeatureVector is the fixed-order numeric summary of a song's acoustic
// properties. It is attached to a Song exactly once and never mutated.
type FeatureVector [NumFeatures]float64

// IsZero reports whether every component is zero.
func (v FeatureVector) IsZero() bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

// Artist is a catalog artist. Songs hold a weak reference to it.
type Artist struct {
	SpotifyID string `json:"spotify_id"`
	Name      string `json:"name"`
}

// Song is identified by its ISRC recording code. Everything else is display
// metadata owned by the catalog; Features is filled in by the analysis
// pipeline.
type Song struct {
	ISRC       string  `json:"isrc"`
	Title      string  `json:"title"`
	Artist     *Artist `json:"artist"`
	Album      string  `json:"album"`
	DurationMs int     `json:"duration_ms"`
	ImageURL   string  `json:"image_url"`
	SpotifyURI string  `json:"spotify_uri"`

	Features *FeatureVector `json:"features,omitempty"`
}

// HasFeatures reports whether a feature vector has already been attached.
func (s *Song) HasFeatures() bool {
	return s != nil && s.Features != nil
}

// FillFrom backfills any unset metadata field from src and reports whether
// anything changed. Populated fields are never overwritten; enrichment is
// idempotent, not replacement.
func (s *Song) FillFrom(src *Song) bool {
	if src == nil {
		return false
	}
	changed := false
	if s.Title == "" && src.Title != "" {
		s.Title = src.Title
		changed = true
	}
	if s.Artist == nil && src.Artist != nil {
		s.Artist = src.Artist
		changed = true
	}
	if s.Album == "" && src.Album != "" {
		s.Album = src.Album
		changed = true
	}
	if s.DurationMs == 0 && src.DurationMs != 0 {
		s.DurationMs = src.DurationMs
		changed = true
	}
	if s.ImageURL == "" && src.ImageURL != "" {
		s.ImageURL = src.ImageURL
		changed = true
	}
	if s.SpotifyURI == "" && src.SpotifyURI != "" {
		s.SpotifyURI = src.SpotifyURI
		changed = true
	}
	return changed
}

// Playlist is an ordered set of songs. Order matters only for display; the
// analysis and ranking steps ignore it.
type Playlist struct {
	SpotifyID string  `json:"spotify_id"`
	Name      string  `json:"name"`
	ImageURL  string  `json:"image_url"`
	Songs     []*Song `json:"songs"`
}

// RankedTrack pairs a candidate song with its mean similarity against the
// user's reference vectors.
type RankedTrack struct {
	Song  *Song   `json:"song"`
	Score float64 `json:"score"`
}

package findmysound

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillFromNeverOverwrites(t *testing.T) {
	artist := &Artist{SpotifyID: "a1", Name: "Drake"}
	song := &Song{ISRC: "USCM51300786", Title: "Hold On"}

	changed := song.FillFrom(&Song{
		ISRC:       "USCM51300786",
		Title:      "Different Title",
		Artist:     artist,
		Album:      "Nothing Was the Same",
		DurationMs: 227000,
		ImageURL:   "https://i.scdn.co/image/abc",
		SpotifyURI: "spotify:track:xyz",
	})

	assert.True(t, changed)
	assert.Equal(t, "Hold On", song.Title, "populated fields must be kept")
	assert.Equal(t, artist, song.Artist)
	assert.Equal(t, "Nothing Was the Same", song.Album)
	assert.Equal(t, 227000, song.DurationMs)

	assert.False(t, song.FillFrom(&Song{Title: "Another"}), "second pass is a no-op")
}

func TestHasFeatures(t *testing.T) {
	s := &Song{ISRC: "X"}
	assert.False(t, s.HasFeatures())

	v := FeatureVector{0.1, 0.2, 0.3, 0.4, 0.5, -6.0, 0.7, 120, 0.9}
	s.Features = &v
	assert.True(t, s.HasFeatures())
}

func TestFeatureVectorIsZero(t *testing.T) {
	var zero FeatureVector
	assert.True(t, zero.IsZero())
	assert.False(t, FeatureVector{Tempo: 98.5}.IsZero())
}

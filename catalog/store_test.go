package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpols/FindMySound/findmysound"
)

func TestResolveSongCreatesOnFirstSight(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	fetched := &findmysound.Song{ISRC: "USUM72009934", Title: "Blinding Lights"}
	song, err := ResolveSong(ctx, store, fetched)
	require.NoError(t, err)
	assert.Equal(t, "Blinding Lights", song.Title)

	stored, err := store.GetSong(ctx, "USUM72009934")
	require.NoError(t, err)
	assert.Equal(t, "Blinding Lights", stored.Title)
}

func TestResolveSongBackfillsWithoutOverwriting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SaveSong(ctx, &findmysound.Song{
		ISRC:  "USUM72009934",
		Title: "Blinding Lights",
	}))

	song, err := ResolveSong(ctx, store, &findmysound.Song{
		ISRC:       "USUM72009934",
		Title:      "Blinding Lights (Remaster)",
		Album:      "After Hours",
		DurationMs: 200040,
	})
	require.NoError(t, err)

	assert.Equal(t, "Blinding Lights", song.Title, "existing title kept")
	assert.Equal(t, "After Hours", song.Album, "missing album backfilled")
	assert.Equal(t, 200040, song.DurationMs)

	stored, err := store.GetSong(ctx, "USUM72009934")
	require.NoError(t, err)
	assert.Equal(t, "After Hours", stored.Album)
}

func TestSaveFeaturesIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := findmysound.FeatureVector{0.1, 0.2, 0.3, 0.4, 0.5, -6, 0.7, 120, 0.9}
	second := findmysound.FeatureVector{0.9, 0.8, 0.7, 0.6, 0.5, -4, 0.3, 90, 0.1}

	require.NoError(t, store.SaveSong(ctx, &findmysound.Song{ISRC: "GBUM71029604"}))
	require.NoError(t, store.SaveFeatures(ctx, "GBUM71029604", first))
	require.NoError(t, store.SaveFeatures(ctx, "GBUM71029604", second))

	song, err := store.GetSong(ctx, "GBUM71029604")
	require.NoError(t, err)
	require.True(t, song.HasFeatures())
	assert.Equal(t, first, *song.Features)
}

func TestGetSongUnknownISRC(t *testing.T) {
	_, err := NewMemoryStore().GetSong(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSongNotFound)
}

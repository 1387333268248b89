package recommend

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpols/FindMySound/catalog"
	"github.com/andrewpols/FindMySound/findmysound"
	"github.com/andrewpols/FindMySound/logger"
)

// fakeSource serves scripted top tracks per artist and records call order.
type fakeSource struct {
	topTracks map[string][]*findmysound.Song
	errors    map[string]error
	calls     []string
}

func (f *fakeSource) TopTracks(_ context.Context, artist *findmysound.Artist, _ int) ([]*findmysound.Song, error) {
	f.calls = append(f.calls, artist.SpotifyID)
	if err, ok := f.errors[artist.SpotifyID]; ok {
		return nil, err
	}
	return f.topTracks[artist.SpotifyID], nil
}

func (f *fakeSource) UserPlaylists(context.Context) ([]*findmysound.Playlist, error) {
	return nil, nil
}

func (f *fakeSource) PlaylistSongs(context.Context, string) ([]*findmysound.Song, error) {
	return nil, nil
}

func (f *fakeSource) CreatePlaylist(context.Context, string, string) (string, string, error) {
	return "", "", nil
}

func (f *fakeSource) AddToPlaylist(context.Context, string, []string) error {
	return nil
}

func refSong(isrc, artistID, artistName string) *findmysound.Song {
	return &findmysound.Song{
		ISRC:   isrc,
		Artist: &findmysound.Artist{SpotifyID: artistID, Name: artistName},
	}
}

func TestGenerateDeduplicatesSharedTopTracks(t *testing.T) {
	log, _ := logger.NewTestLogger()

	// Both artists feature on the same recording.
	shared := &findmysound.Song{ISRC: "SHARED01", Title: "Collab"}
	source := &fakeSource{topTracks: map[string][]*findmysound.Song{
		"a1": {shared, {ISRC: "A1TRACK1", Title: "Solo A"}},
		"a2": {{ISRC: "SHARED01", Title: "Collab"}, {ISRC: "A2TRACK1", Title: "Solo B"}},
	}}

	g := NewGenerator(source, catalog.NewMemoryStore(), log)
	candidates, err := g.Generate(context.Background(), []*findmysound.Song{
		refSong("R1", "a1", "Artist One"),
		refSong("R2", "a2", "Artist Two"),
		refSong("R3", "a1", "Artist One"), // duplicate artist, queried once
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a2"}, source.calls)

	isrcs := make([]string, len(candidates))
	for i, c := range candidates {
		isrcs[i] = c.ISRC
	}
	assert.Equal(t, []string{"SHARED01", "A1TRACK1", "A2TRACK1"}, isrcs,
		"artist-major order, no duplicate identities")
}

func TestGenerateAbortsOnAuthError(t *testing.T) {
	log, _ := logger.NewTestLogger()

	source := &fakeSource{
		topTracks: map[string][]*findmysound.Song{
			"a1": {{ISRC: "A1TRACK1"}},
		},
		errors: map[string]error{"a2": catalog.ErrReauthRequired},
	}

	g := NewGenerator(source, catalog.NewMemoryStore(), log)
	candidates, err := g.Generate(context.Background(), []*findmysound.Song{
		refSong("R1", "a1", "Artist One"),
		refSong("R2", "a2", "Artist Two"),
	})

	assert.ErrorIs(t, err, catalog.ErrReauthRequired)
	assert.Nil(t, candidates, "no partial candidate list")
}

func TestGenerateAbortsOnUpstreamError(t *testing.T) {
	log, _ := logger.NewTestLogger()

	source := &fakeSource{
		errors: map[string]error{"a1": &catalog.UpstreamError{Code: http.StatusBadGateway}},
	}

	g := NewGenerator(source, catalog.NewMemoryStore(), log)
	_, err := g.Generate(context.Background(), []*findmysound.Song{
		refSong("R1", "a1", "Artist One"),
	})

	var ue *catalog.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadGateway, ue.Code)
}

func TestGenerateBackfillsExistingSongs(t *testing.T) {
	log, _ := logger.NewTestLogger()
	ctx := context.Background()

	store := catalog.NewMemoryStore()
	require.NoError(t, store.SaveSong(ctx, &findmysound.Song{
		ISRC:  "A1TRACK1",
		Title: "Known Title",
	}))

	source := &fakeSource{topTracks: map[string][]*findmysound.Song{
		"a1": {{ISRC: "A1TRACK1", Title: "Fetched Title", Album: "Fetched Album"}},
	}}

	g := NewGenerator(source, store, log)
	candidates, err := g.Generate(ctx, []*findmysound.Song{refSong("R1", "a1", "Artist One")})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "Known Title", candidates[0].Title, "populated field kept")
	assert.Equal(t, "Fetched Album", candidates[0].Album, "missing field backfilled")
}

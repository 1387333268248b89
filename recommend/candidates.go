package recommend

import (
	"context"

	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/catalog"
	"github.com/andrewpols/FindMySound/findmysound"
)

// DefaultTopTracks is how many top tracks are pulled per artist.
const DefaultTopTracks = 25

// Generator builds the candidate pool: the top tracks of every artist the
// user already listens to, deduplicated by recording code.
type Generator struct {
	source catalog.Source
	store  catalog.Store
	log    *zap.SugaredLogger
	topN   int
}

func NewGenerator(source catalog.Source, store catalog.Store, log *zap.SugaredLogger) *Generator {
	return &Generator{source: source, store: store, log: log, topN: DefaultTopTracks}
}

// Generate derives the distinct artists from the reference songs (first-seen
// order) and collects their top tracks. Any auth failure aborts immediately
// with catalog.ErrReauthRequired; other upstream failures abort with the
// originating status. No partial candidate list is ever returned.
func (g *Generator) Generate(ctx context.Context, references []*findmysound.Song) ([]*findmysound.Song, error) {
	artists := distinctArtists(references)
	g.log.Infow("generating candidates", "artists", len(artists))

	// Dedup state is scoped to this call.
	seen := make(map[string]struct{})
	var candidates []*findmysound.Song

	for _, artist := range artists {
		tracks, err := g.source.TopTracks(ctx, artist, g.topN)
		if err != nil {
			return nil, err
		}

		for _, track := range tracks {
			if _, ok := seen[track.ISRC]; ok {
				continue
			}
			seen[track.ISRC] = struct{}{}

			song, err := catalog.ResolveSong(ctx, g.store, track)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, song)
		}
	}

	g.log.Infow("candidate pool built", "candidates", len(candidates))
	return candidates, nil
}

// distinctArtists keeps first-seen order, deduped by artist identity.
func distinctArtists(songs []*findmysound.Song) []*findmysound.Artist {
	seen := make(map[string]struct{})
	var artists []*findmysound.Artist
	for _, song := range songs {
		if song.Artist == nil {
			continue
		}
		if _, ok := seen[song.Artist.SpotifyID]; ok {
			continue
		}
		seen[song.Artist.SpotifyID] = struct{}{}
		artists = append(artists, song.Artist)
	}
	return artists
}

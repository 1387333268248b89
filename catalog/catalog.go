// Package catalog talks to the music catalog: track/playlist lookups on
// Spotify and the local song store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	spot "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/findmysound"
	spotutil "github.com/andrewpols/FindMySound/spotify"
	"github.com/andrewpols/FindMySound/util"
)

// ErrReauthRequired signals that the user's Spotify credential is invalid or
// expired and must be renewed out-of-band. Never retried internally.
var ErrReauthRequired = errors.New("catalog: spotify reauthorization required")

// UpstreamError is any other non-2xx catalog response.
type UpstreamError struct {
	Code int
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("catalog: upstream error (status %d): %v", e.Code, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Source is the external catalog: artist top tracks, the user's playlists,
// and playlist creation.
type Source interface {
	TopTracks(ctx context.Context, artist *findmysound.Artist, n int) ([]*findmysound.Song, error)
	UserPlaylists(ctx context.Context) ([]*findmysound.Playlist, error)
	PlaylistSongs(ctx context.Context, playlistID string) ([]*findmysound.Song, error)
	CreatePlaylist(ctx context.Context, name, description string) (id, url string, err error)
	AddToPlaylist(ctx context.Context, playlistID string, uris []string) error
}

const (
	playlistLimit = 10
	trackPageSize = 100
)

// SpotifySource implements Source for a single user's Spotify client.
type SpotifySource struct {
	client *spot.Client
	log    *zap.SugaredLogger
}

func NewSpotifySource(client *spot.Client, log *zap.SugaredLogger) *SpotifySource {
	return &SpotifySource{client: client, log: log}
}

func (s *SpotifySource) TopTracks(ctx context.Context, artist *findmysound.Artist, n int) ([]*findmysound.Song, error) {
	tracks, err := s.client.GetArtistsTopTracks(ctx, spot.ID(artist.SpotifyID), "US")
	if err != nil {
		return nil, translateErr(err)
	}

	if len(tracks) > n {
		tracks = tracks[:n]
	}

	songs := make([]*findmysound.Song, 0, len(tracks))
	for i := range tracks {
		song := songFromTrack(&tracks[i])
		if song == nil {
			continue
		}
		songs = append(songs, song)
	}
	return songs, nil
}

func (s *SpotifySource) UserPlaylists(ctx context.Context) ([]*findmysound.Playlist, error) {
	page, err := s.client.CurrentUsersPlaylists(ctx, spot.Limit(playlistLimit))
	if err != nil {
		return nil, translateErr(err)
	}

	playlists := make([]*findmysound.Playlist, 0, len(page.Playlists))
	for _, pl := range page.Playlists {
		playlists = append(playlists, &findmysound.Playlist{
			SpotifyID: string(pl.ID),
			Name:      pl.Name,
			ImageURL:  util.GetFirstImage(pl.Images),
		})
	}
	return playlists, nil
}

func (s *SpotifySource) PlaylistSongs(ctx context.Context, playlistID string) ([]*findmysound.Song, error) {
	var songs []*findmysound.Song

	for offset := 0; ; offset += trackPageSize {
		page, err := s.client.GetPlaylistItems(ctx, spot.ID(playlistID),
			spot.Limit(trackPageSize), spot.Offset(offset))
		if err != nil {
			return nil, translateErr(err)
		}

		for _, item := range page.Items {
			// Local files and podcast episodes carry no ISRC.
			if item.IsLocal || item.Track.Track == nil {
				continue
			}
			if song := songFromTrack(item.Track.Track); song != nil {
				songs = append(songs, song)
			}
		}

		if len(page.Items) < trackPageSize {
			return songs, nil
		}
	}
}

func (s *SpotifySource) CreatePlaylist(ctx context.Context, name, description string) (string, string, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return "", "", translateErr(err)
	}

	pl, err := s.client.CreatePlaylistForUser(ctx, user.ID, name, description, false, false)
	if err != nil {
		return "", "", translateErr(err)
	}

	return string(pl.ID), pl.ExternalURLs["spotify"], nil
}

func (s *SpotifySource) AddToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	for start := 0; start < len(uris); start += trackPageSize {
		end := start + trackPageSize
		if end > len(uris) {
			end = len(uris)
		}

		ids := make([]spot.ID, 0, end-start)
		for _, uri := range uris[start:end] {
			if id := spotutil.ExtractID(spot.URI(uri)); id != "" {
				ids = append(ids, id)
			}
		}

		if _, err := s.client.AddTracksToPlaylist(ctx, spot.ID(playlistID), ids...); err != nil {
			return translateErr(err)
		}
	}
	return nil
}

// songFromTrack maps a Spotify track to a Song. Tracks without an ISRC have
// no identity here and are skipped.
func songFromTrack(track *spot.FullTrack) *findmysound.Song {
	isrc := util.GetISRC(track)
	if isrc == nil || *isrc == "" {
		return nil
	}

	song := &findmysound.Song{
		ISRC:       *isrc,
		Title:      track.Name,
		Album:      track.Album.Name,
		DurationMs: int(track.Duration),
		SpotifyURI: string(track.URI),
	}

	if thumb := util.GetThumb(track.Album); thumb != nil {
		song.ImageURL = *thumb
	} else {
		song.ImageURL = util.GetFirstImage(track.Album.Images)
	}

	if len(track.Artists) > 0 {
		song.Artist = &findmysound.Artist{
			SpotifyID: string(track.Artists[0].ID),
			Name:      spotutil.GetFirstArtist(track.Artists),
		}
	}

	return song
}

func translateErr(err error) error {
	var se spot.Error
	if errors.As(err, &se) {
		if se.Status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrReauthRequired, se.Message)
		}
		return &UpstreamError{Code: se.Status, Err: err}
	}
	return &UpstreamError{Code: http.StatusBadGateway, Err: err}
}

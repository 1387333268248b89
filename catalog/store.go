package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/findmysound"
)

// ErrSongNotFound is returned by Store.GetSong for unknown recording codes.
var ErrSongNotFound = errors.New("catalog: song not found")

// Store persists songs and their computed feature vectors, keyed by ISRC.
// A feature vector, once written, is never replaced.
type Store interface {
	GetSong(ctx context.Context, isrc string) (*findmysound.Song, error)
	SaveSong(ctx context.Context, song *findmysound.Song) error
	SaveFeatures(ctx context.Context, isrc string, v findmysound.FeatureVector) error
}

// ResolveSong looks up a fetched track in the store, creating it on first
// sight and backfilling any unset metadata fields otherwise.
func ResolveSong(ctx context.Context, store Store, fetched *findmysound.Song) (*findmysound.Song, error) {
	existing, err := store.GetSong(ctx, fetched.ISRC)
	if errors.Is(err, ErrSongNotFound) {
		if err := store.SaveSong(ctx, fetched); err != nil {
			return nil, err
		}
		return fetched, nil
	}
	if err != nil {
		return nil, err
	}

	if existing.FillFrom(fetched) {
		if err := store.SaveSong(ctx, existing); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// PostgresStore is the production Store.
type PostgresStore struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

func ProvideStore(db *sql.DB, log *zap.SugaredLogger) Store {
	return &PostgresStore{db: db, log: log}
}

func (s *PostgresStore) GetSong(ctx context.Context, isrc string) (*findmysound.Song, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT isrc, title, artist_id, artist_name, album, duration_ms, image_url, spotify_uri, features
		FROM songs
		WHERE isrc = $1`, isrc)

	var (
		song       findmysound.Song
		artistID   sql.NullString
		artistName sql.NullString
		features   pq.Float64Array
	)
	err := row.Scan(&song.ISRC, &song.Title, &artistID, &artistName,
		&song.Album, &song.DurationMs, &song.ImageURL, &song.SpotifyURI, &features)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get song: %w", err)
	}

	if artistID.Valid {
		song.Artist = &findmysound.Artist{SpotifyID: artistID.String, Name: artistName.String}
	}

	if len(features) == findmysound.NumFeatures {
		var v findmysound.FeatureVector
		copy(v[:], features)
		song.Features = &v
	}

	return &song, nil
}

func (s *PostgresStore) SaveSong(ctx context.Context, song *findmysound.Song) error {
	var artistID, artistName sql.NullString
	if song.Artist != nil {
		artistID = sql.NullString{String: song.Artist.SpotifyID, Valid: true}
		artistName = sql.NullString{String: song.Artist.Name, Valid: true}
	}

	var features pq.Float64Array
	if song.Features != nil {
		features = song.Features[:]
	}

	// The feature column is write-once: COALESCE keeps whatever was
	// computed first.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO songs (isrc, title, artist_id, artist_name, album, duration_ms, image_url, spotify_uri, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (isrc) DO UPDATE SET
			title = EXCLUDED.title,
			artist_id = EXCLUDED.artist_id,
			artist_name = EXCLUDED.artist_name,
			album = EXCLUDED.album,
			duration_ms = EXCLUDED.duration_ms,
			image_url = EXCLUDED.image_url,
			spotify_uri = EXCLUDED.spotify_uri,
			features = COALESCE(songs.features, EXCLUDED.features)`,
		song.ISRC, song.Title, artistID, artistName, song.Album,
		song.DurationMs, song.ImageURL, song.SpotifyURI, features)
	if err != nil {
		return fmt.Errorf("catalog: save song: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveFeatures(ctx context.Context, isrc string, v findmysound.FeatureVector) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE songs SET features = $2
		WHERE isrc = $1 AND features IS NULL`,
		isrc, pq.Float64Array(v[:]))
	if err != nil {
		return fmt.Errorf("catalog: save features: %w", err)
	}
	return nil
}

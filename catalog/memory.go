package catalog

import (
	"context"
	"sync"

	"github.com/andrewpols/FindMySound/findmysound"
)

// MemoryStore is an in-memory Store used in tests and when no database is
// configured. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	songs map[string]*findmysound.Song
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{songs: make(map[string]*findmysound.Song)}
}

func (m *MemoryStore) GetSong(_ context.Context, isrc string) (*findmysound.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	song, ok := m.songs[isrc]
	if !ok {
		return nil, ErrSongNotFound
	}
	out := *song
	return &out, nil
}

func (m *MemoryStore) SaveSong(_ context.Context, song *findmysound.Song) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *song
	if prev, ok := m.songs[song.ISRC]; ok && prev.Features != nil {
		stored.Features = prev.Features
	}
	m.songs[song.ISRC] = &stored
	return nil
}

func (m *MemoryStore) SaveFeatures(_ context.Context, isrc string, v findmysound.FeatureVector) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	song, ok := m.songs[isrc]
	if !ok {
		song = &findmysound.Song{ISRC: isrc}
		m.songs[isrc] = song
	}
	if song.Features == nil {
		song.Features = &v
	}
	return nil
}

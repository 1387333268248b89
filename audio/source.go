// Package audio fetches and normalizes short preview clips for analysis.
package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/findmysound"
)

// ErrNoPreview signals that no preview clip exists for a recording. The song
// cannot be analyzed and is treated as a permanent failure upstream.
var ErrNoPreview = errors.New("audio: no preview available")

// Source returns a short preview clip for a song.
type Source interface {
	Preview(ctx context.Context, song *findmysound.Song) ([]byte, error)
}

const deezerBaseURL = "https://api.deezer.com"

// DeezerSource looks previews up on Deezer by ISRC. Deezer previews are the
// only broadly available clips now that Spotify no longer exposes preview
// URLs through the API.
type DeezerSource struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
}

func ProvideSource(log *zap.SugaredLogger) Source {
	return NewDeezerSource(deezerBaseURL, log)
}

func NewDeezerSource(baseURL string, log *zap.SugaredLogger) *DeezerSource {
	return &DeezerSource{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type deezerTrack struct {
	Preview string `json:"preview"`
}

func (d *DeezerSource) Preview(ctx context.Context, song *findmysound.Song) ([]byte, error) {
	previewURL, err := d.lookupPreviewURL(ctx, song.ISRC)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio: download preview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio: download preview: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (d *DeezerSource) lookupPreviewURL(ctx context.Context, isrc string) (string, error) {
	u := d.baseURL + "/track/" + url.PathEscape("isrc:"+isrc)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("audio: track lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio: track lookup: status %d", resp.StatusCode)
	}

	var track deezerTrack
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return "", fmt.Errorf("audio: track lookup: %w", err)
	}

	if track.Preview == "" {
		return "", ErrNoPreview
	}
	return track.Preview, nil
}

// Package analysis turns raw songs into feature vectors: an external
// analysis provider plus the bounded-concurrency pipeline that drives it
// under the provider's rate limits.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/findmysound"
)

// OutcomeKind tags an analysis result.
type OutcomeKind int

const (
	// Analyzed means a complete feature vector came back.
	Analyzed OutcomeKind = iota
	// RateLimited means the provider throttled the call; retry after
	// Outcome.RetryAfter.
	RateLimited
	// Failed means the song can never be analyzed (no preview, transcode
	// failure, malformed response). Not retried.
	Failed
)

// Outcome is the tagged result of one analysis attempt.
type Outcome struct {
	Kind       OutcomeKind
	Features   findmysound.FeatureVector
	RetryAfter time.Duration
	Reason     string
}

// Provider submits normalized audio for analysis.
type Provider interface {
	Analyze(ctx context.Context, audio []byte) (Outcome, error)
}

const reccoBeatsURL = "https://api.reccobeats.com/v1/analysis/audio-features"

// ReccoBeats calls the ReccoBeats audio-features API.
type ReccoBeats struct {
	url  string
	http *http.Client
	log  *zap.SugaredLogger
}

func ProvideProvider(log *zap.SugaredLogger) Provider {
	return NewReccoBeats(reccoBeatsURL, log)
}

func NewReccoBeats(url string, log *zap.SugaredLogger) *ReccoBeats {
	return &ReccoBeats{
		url:  url,
		http: &http.Client{},
		log:  log,
	}
}

type reccoBeatsFeatures struct {
	Acousticness     *float64 `json:"acousticness"`
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Liveness         *float64 `json:"liveness"`
	Loudness         *float64 `json:"loudness"`
	Speechiness      *float64 `json:"speechiness"`
	Tempo            *float64 `json:"tempo"`
	Valence          *float64 `json:"valence"`
}

type reccoBeatsError struct {
	Error string `json:"error"`
}

func (r *ReccoBeats) Analyze(ctx context.Context, audio []byte) (Outcome, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audioFile", "preview.mp3")
	if err != nil {
		return Outcome{}, err
	}
	if _, err := part.Write(audio); err != nil {
		return Outcome{}, err
	}
	if err := form.Close(); err != nil {
		return Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, &body)
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("analysis: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, fmt.Errorf("analysis: read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return parseFeatures(raw), nil
	case http.StatusTooManyRequests:
		var rbErr reccoBeatsError
		_ = json.Unmarshal(raw, &rbErr)
		return Outcome{
			Kind:       RateLimited,
			RetryAfter: ParseRetryAfter(rbErr.Error),
			Reason:     rbErr.Error,
		}, nil
	default:
		return Outcome{
			Kind:   Failed,
			Reason: fmt.Sprintf("analysis status %d", resp.StatusCode),
		}, nil
	}
}

// parseFeatures enforces the vector shape: all nine features must be present
// or the response counts as a permanent failure, never a partial vector.
func parseFeatures(raw []byte) Outcome {
	var f reccoBeatsFeatures
	if err := json.Unmarshal(raw, &f); err != nil {
		return Outcome{Kind: Failed, Reason: "malformed analysis response"}
	}

	fields := []*float64{
		f.Acousticness, f.Danceability, f.Energy, f.Instrumentalness,
		f.Liveness, f.Loudness, f.Speechiness, f.Tempo, f.Valence,
	}

	var v findmysound.FeatureVector
	for i, field := range fields {
		if field == nil {
			return Outcome{Kind: Failed, Reason: "incomplete feature set in analysis response"}
		}
		v[i] = *field
	}

	return Outcome{Kind: Analyzed, Features: v}
}

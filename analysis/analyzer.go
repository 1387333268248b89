package analysis

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/audio"
	"github.com/andrewpols/FindMySound/findmysound"
)

// SongAnalyzer produces one analysis outcome for one song. The pipeline only
// depends on this interface; the production chain is preview fetch →
// transcode → provider upload.
type SongAnalyzer interface {
	AnalyzeSong(ctx context.Context, song *findmysound.Song) (Outcome, error)
}

// PreviewAnalyzer composes the audio source, the transcoder, and the
// analysis provider.
type PreviewAnalyzer struct {
	source     audio.Source
	transcoder audio.Transcoder
	provider   Provider
	log        *zap.SugaredLogger
}

func ProvideAnalyzer(source audio.Source, transcoder audio.Transcoder, provider Provider, log *zap.SugaredLogger) SongAnalyzer {
	return &PreviewAnalyzer{
		source:     source,
		transcoder: transcoder,
		provider:   provider,
		log:        log,
	}
}

func (a *PreviewAnalyzer) AnalyzeSong(ctx context.Context, song *findmysound.Song) (Outcome, error) {
	clip, err := a.source.Preview(ctx, song)
	if err != nil {
		if errors.Is(err, audio.ErrNoPreview) {
			return Outcome{Kind: Failed, Reason: "no preview available"}, nil
		}
		return a.failUnlessCanceled(ctx, "preview fetch failed", err)
	}

	normalized, err := a.transcoder.Normalize(ctx, clip)
	if err != nil {
		return a.failUnlessCanceled(ctx, "transcode failed", err)
	}

	outcome, err := a.provider.Analyze(ctx, normalized)
	if err != nil {
		return a.failUnlessCanceled(ctx, "provider call failed", err)
	}
	return outcome, nil
}

// failUnlessCanceled maps collaborator errors onto a permanent failure for
// this song, but lets context cancellation propagate so the pipeline can
// shut down.
func (a *PreviewAnalyzer) failUnlessCanceled(ctx context.Context, what string, err error) (Outcome, error) {
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}
	a.log.Warnw("analysis attempt failed", "reason", what, "error", err)
	return Outcome{Kind: Failed, Reason: what + ": " + err.Error()}, nil
}

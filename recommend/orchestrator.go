package recommend

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/andrewpols/FindMySound/analysis"
	"github.com/andrewpols/FindMySound/catalog"
	"github.com/andrewpols/FindMySound/findmysound"
)

// MaxRecommendations caps the ranked list returned to callers.
const MaxRecommendations = 200

// State names one phase of a recommendation run.
type State string

const (
	StateAnalyzingReferences  State = "analyzing_references"
	StateGeneratingCandidates State = "generating_candidates"
	StateAnalyzingCandidates  State = "analyzing_candidates"
	StateRanking              State = "ranking"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// Status is the terminal outcome of a run.
type Status int

const (
	StatusOK Status = iota
	StatusReauthRequired
	StatusUpstreamError
	StatusRankingImpossible
)

// Result carries the terminal status and, on success, the ranked tracks.
type Result struct {
	Status Status
	// Code is the upstream HTTP status for StatusUpstreamError and
	// StatusReauthRequired.
	Code   int
	Ranked []findmysound.RankedTrack
}

// Orchestrator sequences one recommendation run: analyze references →
// generate candidates → analyze candidates → rank.
type Orchestrator struct {
	pipeline  *analysis.Pipeline
	generator *Generator
	log       *zap.SugaredLogger
}

func NewOrchestrator(pipeline *analysis.Pipeline, generator *Generator, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{pipeline: pipeline, generator: generator, log: log}
}

// Recommend runs the full cycle over the given playlists. progress may be
// nil; otherwise it is invoked on every state transition. The returned error
// is non-nil only for context cancellation and store failures; catalog-level
// failures are reported through Result.Status.
func (o *Orchestrator) Recommend(ctx context.Context, playlists []*findmysound.Playlist, progress func(State)) (*Result, error) {
	step := func(s State) {
		o.log.Infow("recommendation state", "state", s)
		if progress != nil {
			progress(s)
		}
	}

	var references []*findmysound.Song
	for _, pl := range playlists {
		references = append(references, pl.Songs...)
	}

	// Reference songs that fail analysis stay in their playlists; they are
	// simply excluded from the taste profile.
	step(StateAnalyzingReferences)
	refBatch, err := o.pipeline.Run(ctx, references, false)
	if err != nil {
		step(StateFailed)
		return nil, err
	}

	var refVectors []findmysound.FeatureVector
	for _, song := range refBatch.Songs {
		if song.HasFeatures() {
			refVectors = append(refVectors, *song.Features)
		}
	}

	step(StateGeneratingCandidates)
	candidates, err := o.generator.Generate(ctx, references)
	if err != nil {
		if res := terminalStatus(err); res != nil {
			step(StateFailed)
			return res, nil
		}
		step(StateFailed)
		return nil, err
	}

	// Candidates that cannot be analyzed can never be recommended.
	step(StateAnalyzingCandidates)
	candBatch, err := o.pipeline.Run(ctx, candidates, true)
	if err != nil {
		step(StateFailed)
		return nil, err
	}

	step(StateRanking)
	if len(refVectors) == 0 {
		step(StateFailed)
		return &Result{Status: StatusRankingImpossible}, nil
	}

	ranked, err := Rank(candBatch.Songs, refVectors)
	if err != nil {
		step(StateFailed)
		return &Result{Status: StatusRankingImpossible}, nil
	}

	if len(ranked) > MaxRecommendations {
		ranked = ranked[:MaxRecommendations]
	}

	step(StateDone)
	return &Result{Status: StatusOK, Ranked: ranked}, nil
}

// terminalStatus maps catalog failures onto terminal run statuses,
// propagated verbatim to the caller.
func terminalStatus(err error) *Result {
	if errors.Is(err, catalog.ErrReauthRequired) {
		return &Result{Status: StatusReauthRequired, Code: http.StatusUnauthorized}
	}
	var ue *catalog.UpstreamError
	if errors.As(err, &ue) {
		return &Result{Status: StatusUpstreamError, Code: ue.Code}
	}
	return nil
}

// Package recommend turns analyzed songs into an ordered recommendation
// list: candidate generation from the user's artists, cosine-similarity
// ranking, and the orchestration of one recommendation run.
package recommend

import (
	"errors"
	"math"
	"sort"

	"github.com/andrewpols/FindMySound/findmysound"
)

// ErrNoReferenceVectors means the reference set produced no usable vectors;
// ranking cannot proceed and must not pretend to.
var ErrNoReferenceVectors = errors.New("recommend: no reference vectors to rank against")

// CosineSimilarity is dot(a,b) / (|a| * |b|), defined as 0 when either
// vector has zero magnitude.
func CosineSimilarity(a, b findmysound.FeatureVector) float64 {
	var dot, magA, magB float64
	for i := 0; i < findmysound.NumFeatures; i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Rank scores every candidate by its mean similarity across the reference
// vectors and returns them ordered by score descending. Ties keep the
// original candidate order, so identical input yields identical output.
// Candidates without a vector are skipped; they can never be recommended.
func Rank(candidates []*findmysound.Song, references []findmysound.FeatureVector) ([]findmysound.RankedTrack, error) {
	if len(references) == 0 {
		return nil, ErrNoReferenceVectors
	}

	ranked := make([]findmysound.RankedTrack, 0, len(candidates))
	for _, song := range candidates {
		if !song.HasFeatures() {
			continue
		}

		var sum float64
		for _, ref := range references {
			sum += CosineSimilarity(*song.Features, ref)
		}

		ranked = append(ranked, findmysound.RankedTrack{
			Song:  song,
			Score: sum / float64(len(references)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked, nil
}

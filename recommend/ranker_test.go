package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpols/FindMySound/findmysound"
)

func vec(values ...float64) findmysound.FeatureVector {
	var v findmysound.FeatureVector
	copy(v[:], values)
	return v
}

func songWithVector(isrc string, v findmysound.FeatureVector) *findmysound.Song {
	return &findmysound.Song{ISRC: isrc, Features: &v}
}

func TestCosineSimilaritySelf(t *testing.T) {
	v := vec(0.3, 0.7, 0.5, 0.1, 0.2, -6.2, 0.05, 118.2, 0.4)
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	var zero findmysound.FeatureVector
	v := vec(0.3, 0.7, 0.5)
	assert.Equal(t, 0.0, CosineSimilarity(v, zero))
	assert.Equal(t, 0.0, CosineSimilarity(zero, zero))
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := vec(1, 0, 0)
	b := vec(0, 1, 0)
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
}

func TestRankOrdersByScore(t *testing.T) {
	refs := []findmysound.FeatureVector{vec(1, 0, 0)}
	candidates := []*findmysound.Song{
		songWithVector("FAR", vec(0, 1, 0)),
		songWithVector("NEAR", vec(1, 0, 0)),
	}

	ranked, err := Rank(candidates, refs)
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "NEAR", ranked[0].Song.ISRC)
	assert.InDelta(t, 1.0, ranked[0].Score, 1e-9)
	assert.Equal(t, "FAR", ranked[1].Song.ISRC)
	assert.InDelta(t, 0.0, ranked[1].Score, 1e-9)
}

func TestRankIsStableForTies(t *testing.T) {
	refs := []findmysound.FeatureVector{vec(1, 1, 0)}
	same := vec(1, 1, 0)
	candidates := []*findmysound.Song{
		songWithVector("FIRST", same),
		songWithVector("SECOND", same),
	}

	ranked, err := Rank(candidates, refs)
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "FIRST", ranked[0].Song.ISRC, "ties keep candidate order")
	assert.Equal(t, "SECOND", ranked[1].Song.ISRC)
	assert.Equal(t, ranked[0].Score, ranked[1].Score)
}

func TestRankMeanAcrossReferences(t *testing.T) {
	refs := []findmysound.FeatureVector{vec(1, 0, 0), vec(0, 1, 0)}
	candidates := []*findmysound.Song{songWithVector("A", vec(1, 0, 0))}

	ranked, err := Rank(candidates, refs)
	require.NoError(t, err)

	require.Len(t, ranked, 1)
	assert.InDelta(t, 0.5, ranked[0].Score, 1e-9)
}

func TestRankEmptyReferences(t *testing.T) {
	_, err := Rank([]*findmysound.Song{songWithVector("A", vec(1))}, nil)
	assert.ErrorIs(t, err, ErrNoReferenceVectors)
}

func TestRankSkipsCandidatesWithoutVectors(t *testing.T) {
	refs := []findmysound.FeatureVector{vec(1, 0, 0)}
	candidates := []*findmysound.Song{
		{ISRC: "UNANALYZED"},
		songWithVector("OK", vec(1, 0, 0)),
	}

	ranked, err := Rank(candidates, refs)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "OK", ranked[0].Song.ISRC)
}

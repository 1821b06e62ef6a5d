package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreEmptyIsZero(t *testing.T) {
	scorer := NewConfidenceScorer(0.5)

	assert.Equal(t, 0.0, scorer.Score(nil))
	assert.Equal(t, 0.0, scorer.Score([]Document{}))
}

func TestScoreSingleDocument(t *testing.T) {
	scorer := NewConfidenceScorer(0.5)

	docs := []Document{{Similarity: 0.95, SimilarityKnown: true}}
	assert.Equal(t, 0.95, scorer.Score(docs))
}

func TestScoreWeightsEarlierDocumentsMore(t *testing.T) {
	scorer := NewConfidenceScorer(0.5)

	docs := []Document{
		{Similarity: 0.9, SimilarityKnown: true},
		{Similarity: 0.8, SimilarityKnown: true},
		{Similarity: 0.7, SimilarityKnown: true},
	}

	// (0.9*1 + 0.8*0.5 + 0.7/3) / (1 + 0.5 + 1/3)
	assert.Equal(t, 0.8364, scorer.Score(docs))
}

func TestScoreIsOrderSensitive(t *testing.T) {
	scorer := NewConfidenceScorer(0.5)

	highFirst := []Document{
		{Similarity: 0.95, SimilarityKnown: true},
		{Similarity: 0.50, SimilarityKnown: true},
	}
	lowFirst := []Document{
		{Similarity: 0.50, SimilarityKnown: true},
		{Similarity: 0.95, SimilarityKnown: true},
	}

	assert.Equal(t, 0.8, scorer.Score(highFirst))
	assert.Equal(t, 0.65, scorer.Score(lowFirst))
	assert.Greater(t, scorer.Score(highFirst), scorer.Score(lowFirst))
}

func TestScoreSubstitutesNeutralForUnknownSimilarity(t *testing.T) {
	scorer := NewConfidenceScorer(0.5)

	docs := []Document{{SimilarityKnown: false}}
	assert.Equal(t, 0.5, scorer.Score(docs))

	mixed := []Document{
		{Similarity: 0.9, SimilarityKnown: true},
		{SimilarityKnown: false},
	}
	// (0.9 + 0.5*0.5) / 1.5
	assert.Equal(t, 0.7667, scorer.Score(mixed))
}

func TestScoreUsesConfiguredNeutral(t *testing.T) {
	scorer := NewConfidenceScorer(0.3)

	docs := []Document{{SimilarityKnown: false}}
	assert.Equal(t, 0.3, scorer.Score(docs))
}

func TestScoreBoundedByInputRange(t *testing.T) {
	scorer := NewConfidenceScorer(0.5)

	docs := []Document{
		{Similarity: 1.0, SimilarityKnown: true},
		{Similarity: 1.0, SimilarityKnown: true},
	}
	assert.Equal(t, 1.0, scorer.Score(docs))

	zeros := []Document{
		{Similarity: 0.0, SimilarityKnown: true},
		{Similarity: 0.0, SimilarityKnown: true},
	}
	assert.Equal(t, 0.0, scorer.Score(zeros))
}

func TestScoreRoundsToFourDecimals(t *testing.T) {
	scorer := NewConfidenceScorer(0.5)

	docs := []Document{
		{Similarity: 1.0 / 3.0, SimilarityKnown: true},
	}
	assert.Equal(t, 0.3333, scorer.Score(docs))
}

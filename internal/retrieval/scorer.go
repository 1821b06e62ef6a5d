package retrieval

import "math"

const (
	// DefaultNeutralSimilarity is substituted for documents whose backend
	// reported no similarity at all.
	DefaultNeutralSimilarity = 0.5

	// scorePrecision is the number of decimal places scores are rounded to.
	scorePrecision = 4
)

// ConfidenceScorer turns a ranked document list into a single score in [0,1].
//
// Each document at 0-based position i is weighted 1/(i+1), so the first
// result dominates and later results contribute progressively less. The
// score is therefore order-sensitive: the same similarities in a different
// order produce a different score, because rank order is assumed meaningful.
type ConfidenceScorer struct {
	neutralSimilarity float64
}

func NewConfidenceScorer(neutralSimilarity float64) *ConfidenceScorer {
	if neutralSimilarity <= 0 {
		neutralSimilarity = DefaultNeutralSimilarity
	}
	return &ConfidenceScorer{neutralSimilarity: neutralSimilarity}
}

// Score computes the position-weighted average similarity, rounded to four
// decimal places. An empty document set scores exactly 0.0.
func (s *ConfidenceScorer) Score(docs []Document) float64 {
	if len(docs) == 0 {
		return 0.0
	}

	var weightedSum, totalWeight float64
	for i, doc := range docs {
		similarity := doc.Similarity
		if !doc.SimilarityKnown {
			similarity = s.neutralSimilarity
		}

		weight := 1.0 / float64(i+1)
		weightedSum += similarity * weight
		totalWeight += weight
	}

	confidence := weightedSum / totalWeight
	return roundTo(confidence, scorePrecision)
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

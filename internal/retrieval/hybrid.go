package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/apperror"
	"github.com/industrial-rag/backend/pkg/logger"
)

// WebSearcher is the free-text search capability. Available reports whether
// the capability is actually usable; a Disabled implementation is selected at
// construction time when web search is turned off.
type WebSearcher interface {
	TextSearch(ctx context.Context, query string, maxResults int) ([]WebResult, error)
	Available() bool
}

// SessionBudget tracks per-session web-search spending. TryChargeWebSearch
// atomically reserves one unit and reports whether the budget allowed it;
// RefundWebSearch returns the unit when the search itself failed.
type SessionBudget interface {
	TryChargeWebSearch(sessionID string) bool
	RefundWebSearch(sessionID string)
	WebSearchesRemaining(sessionID string) int
}

// Config carries the hybrid-retrieval policy. The web similarity constants
// are an arbitrary descending pseudo-score with no semantic grounding; they
// are kept configurable rather than baked in.
type Config struct {
	WebSearchEnabled  bool
	MinConfidence     float64
	MaxWebResults     int
	DomainHint        string
	WebBaseSimilarity float64
	WebSimilarityStep float64
	DefaultTopK       int
}

func DefaultConfig() Config {
	return Config{
		WebSearchEnabled:  true,
		MinConfidence:     0.5,
		MaxWebResults:     3,
		DomainHint:        "warehouse automation",
		WebBaseSimilarity: 0.6,
		WebSimilarityStep: 0.05,
		DefaultTopK:       5,
	}
}

// LocalSearcher is the always-first retrieval stage.
type LocalSearcher interface {
	Retrieve(ctx context.Context, query string, k int) ([]Document, error)
}

// HybridRetriever combines local vector search with a budgeted web-search
// fallback. Local evidence always precedes web evidence in the merged
// ranking, regardless of score magnitude.
type HybridRetriever struct {
	local    LocalSearcher
	web      WebSearcher
	sessions SessionBudget
	scorer   *ConfidenceScorer
	cfg      Config
}

func NewHybridRetriever(local LocalSearcher, web WebSearcher, sessions SessionBudget, scorer *ConfidenceScorer, cfg Config) *HybridRetriever {
	if cfg.MaxWebResults <= 0 {
		cfg.MaxWebResults = 3
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	return &HybridRetriever{
		local:    local,
		web:      web,
		sessions: sessions,
		scorer:   scorer,
		cfg:      cfg,
	}
}

// Retrieve runs the single-pass retrieval state machine: local search, local
// confidence, conditional budgeted web fallback, merge, rescore.
//
// A vector-store failure degrades to zero local documents; an embedding
// failure aborts the whole call, since a query that cannot be embedded
// cannot be locally searched at all.
func (h *HybridRetriever) Retrieve(ctx context.Context, query, sessionID string, k int) (*Result, error) {
	if k <= 0 {
		k = h.cfg.DefaultTopK
	}

	localDocs, err := h.local.Retrieve(ctx, query, k)
	if err != nil {
		if apperror.IsKind(err, apperror.KindEmbedding) {
			return nil, err
		}
		logger.Warn("local search failed, continuing without local evidence",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		localDocs = nil
	}

	localConfidence := h.scorer.Score(localDocs)

	webSearchUsed := false
	var webDocs []Document

	if h.shouldSearchWeb(localConfidence, len(localDocs)) {
		if h.sessions.TryChargeWebSearch(sessionID) {
			logger.Info("web search triggered",
				zap.String("session_id", sessionID),
				zap.Float64("local_confidence", localConfidence),
				zap.Float64("min_confidence", h.cfg.MinConfidence),
			)

			docs, err := h.searchWeb(ctx, query)
			if err != nil {
				// A failed web search yields nothing and must not spend budget.
				h.sessions.RefundWebSearch(sessionID)
				logger.Warn("web search failed", zap.Error(err))
			} else {
				webDocs = docs
				webSearchUsed = true
			}
		} else {
			logger.Warn("session reached web search limit", zap.String("session_id", sessionID))
		}
	}

	merged := h.merge(localDocs, webDocs)

	return &Result{
		Documents:            merged,
		ConfidenceScore:      h.scorer.Score(merged),
		Sources:              FormatSources(merged),
		WebSearchUsed:        webSearchUsed,
		WebSearchesRemaining: h.sessions.WebSearchesRemaining(sessionID),
	}, nil
}

func (h *HybridRetriever) shouldSearchWeb(localConfidence float64, localCount int) bool {
	return h.cfg.WebSearchEnabled &&
		h.web != nil && h.web.Available() &&
		(localConfidence < h.cfg.MinConfidence || localCount == 0)
}

func (h *HybridRetriever) searchWeb(ctx context.Context, query string) ([]Document, error) {
	searchQuery := query
	if h.cfg.DomainHint != "" {
		searchQuery = fmt.Sprintf("%s %s", query, h.cfg.DomainHint)
	}

	results, err := h.web.TextSearch(ctx, searchQuery, h.cfg.MaxWebResults)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(results))
	for i, result := range results {
		content := result.Body
		if result.Title != "" {
			content = result.Title + "\n\n" + result.Body
		}
		docs = append(docs, Document{
			Content:         content,
			Similarity:      h.cfg.WebBaseSimilarity - h.cfg.WebSimilarityStep*float64(i),
			SimilarityKnown: true,
			Rank:            i + 1,
			Origin:          WebOrigin(result.Title, result.URL),
		})
	}

	return docs, nil
}

// merge appends up to MaxWebResults web documents after the local ones,
// preserving both original orders.
func (h *HybridRetriever) merge(localDocs, webDocs []Document) []Document {
	merged := make([]Document, 0, len(localDocs)+len(webDocs))
	merged = append(merged, localDocs...)

	for i, doc := range webDocs {
		if i >= h.cfg.MaxWebResults {
			break
		}
		merged = append(merged, doc)
	}

	return merged
}

package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/metrics"
	"github.com/industrial-rag/backend/pkg/logger"
	"github.com/industrial-rag/backend/pkg/utils"
)

// EmbeddingCache stores embeddings keyed by text hash.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error
}

type embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CachedEmbedder fronts an embedder with a cache. Cache failures are
// non-fatal: a broken cache degrades to a plain embedder call.
type CachedEmbedder struct {
	next  embedder
	cache EmbeddingCache
	ttl   time.Duration
}

func NewCachedEmbedder(next embedder, cache EmbeddingCache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache, ttl: ttl}
}

func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := utils.HashString(text)

	embedding, found, err := e.cache.GetEmbedding(ctx, key)
	if err != nil {
		logger.Warn("embedding cache lookup failed", zap.Error(err))
	}
	if found {
		metrics.CacheHits.WithLabelValues("embedding").Inc()
		return embedding, nil
	}
	metrics.CacheMisses.WithLabelValues("embedding").Inc()

	embedding, err = e.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.cache.SetEmbedding(ctx, key, embedding, e.ttl); err != nil {
		logger.Warn("embedding cache store failed", zap.Error(err))
	}

	return embedding, nil
}

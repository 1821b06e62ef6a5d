package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/apperror"
	"github.com/industrial-rag/backend/pkg/logger"
)

// Embedder maps query text to a fixed-dimension vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is the similarity-search backend. Rows come back ordered by
// descending similarity; matchThreshold 0 means no floor.
type VectorSearcher interface {
	Search(ctx context.Context, embedding []float32, matchThreshold float64, matchCount int) ([]Row, error)
}

// LocalRetriever wraps the embedding provider and the vector store into a
// single query-to-documents operation. It performs no retries: a provider
// failure propagates immediately as a typed error and the caller decides.
type LocalRetriever struct {
	embedder       Embedder
	store          VectorSearcher
	matchThreshold float64
}

func NewLocalRetriever(embedder Embedder, store VectorSearcher, matchThreshold float64) *LocalRetriever {
	return &LocalRetriever{
		embedder:       embedder,
		store:          store,
		matchThreshold: matchThreshold,
	}
}

// Retrieve embeds the query and searches the vector store for the top k
// documents. Embedding failures surface as an embedding error, store
// failures as a retrieval error; the distinction matters upstream.
func (r *LocalRetriever) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, apperror.Embedding("failed to embed query", err)
	}

	rows, err := r.store.Search(ctx, embedding, r.matchThreshold, k)
	if err != nil {
		return nil, apperror.Retrieval("vector store search failed", err)
	}

	docs := make([]Document, 0, len(rows))
	for i, row := range rows {
		docs = append(docs, documentFromRow(row, i+1))
	}

	logger.Debug("local retrieval completed",
		zap.Int("requested", k),
		zap.Int("returned", len(docs)),
	)

	return docs, nil
}

// documentFromRow maps one store row to a Document. Rank is the 1-based
// position in the returned order; the retriever never re-sorts. Row metadata
// is merged into the document but cannot override id, similarity or rank.
func documentFromRow(row Row, rank int) Document {
	metadata := make(map[string]any, len(row.Metadata)+1)

	origin := LocalOrigin("")
	for key, value := range row.Metadata {
		switch key {
		case "id", "similarity", "rank":
			// Reserved keys are owned by the retriever.
			continue
		case "source":
			if s, ok := value.(string); ok {
				origin.Source = s
				continue
			}
		case "page", "page_number":
			if page, ok := toInt(value); ok {
				origin.Page = page
				origin.HasPage = true
				continue
			}
		}
		metadata[key] = value
	}
	metadata["id"] = row.ID

	return Document{
		Content:         row.Content,
		Similarity:      row.Similarity,
		SimilarityKnown: row.SimilarityKnown,
		Rank:            rank,
		Origin:          origin,
		Metadata:        metadata,
	}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	default:
		return 0, false
	}
}

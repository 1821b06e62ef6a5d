package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/retrieval"
	"github.com/industrial-rag/backend/pkg/logger"
)

type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
	contentField   string
}

// DocumentChunk is one embedded chunk to be inserted into the collection.
type DocumentChunk struct {
	ID        string
	Embedding []float32
	Content   string
	Source    string
	Page      int
	Timestamp time.Time
}

func NewClient(endpoint, collectionName string, vectorDim int, contentField string) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	if contentField == "" {
		contentField = "content"
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
		contentField:   contentField,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		logger.Info("collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Warehouse automation document embeddings",
		Fields: []*entity.Field{
			{
				Name:       "chunk_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "embedding",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": fmt.Sprintf("%d", m.vectorDim)},
			},
			{
				Name:       m.contentField,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "8192"},
			},
			{
				Name:       "source",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "512"},
			},
			{
				Name:     "page",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "created_at",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 1024)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

func (m *Client) Insert(ctx context.Context, chunks []DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	chunkIDs := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	contents := make([]string, len(chunks))
	sources := make([]string, len(chunks))
	pages := make([]int64, len(chunks))
	timestamps := make([]int64, len(chunks))

	for i, chunk := range chunks {
		chunkIDs[i] = chunk.ID
		embeddings[i] = chunk.Embedding
		contents[i] = chunk.Content
		sources[i] = chunk.Source
		pages[i] = int64(chunk.Page)
		timestamps[i] = chunk.Timestamp.Unix()
	}

	_, err := m.client.Insert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("chunk_id", chunkIDs),
		entity.NewColumnFloatVector("embedding", m.vectorDim, embeddings),
		entity.NewColumnVarChar(m.contentField, contents),
		entity.NewColumnVarChar("source", sources),
		entity.NewColumnInt64("page", pages),
		entity.NewColumnInt64("created_at", timestamps),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	if err := m.client.Flush(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("chunks inserted into vector store", zap.Int("count", len(chunks)))

	return nil
}

// Search returns up to matchCount rows ordered by descending cosine
// similarity. Milvus has no server-side score floor, so rows below
// matchThreshold are filtered here; a threshold of 0 keeps everything.
func (m *Client) Search(ctx context.Context, embedding []float32, matchThreshold float64, matchCount int) ([]retrieval.Row, error) {
	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		"",
		[]string{"chunk_id", m.contentField, "source", "page"},
		[]entity.Vector{entity.FloatVector(embedding)},
		"embedding",
		entity.COSINE,
		matchCount,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	rows := make([]retrieval.Row, 0, matchCount)
	for _, sr := range searchResult {
		chunkIDCol := sr.Fields.GetColumn("chunk_id")
		contentCol := sr.Fields.GetColumn(m.contentField)
		sourceCol := sr.Fields.GetColumn("source")
		pageCol := sr.Fields.GetColumn("page")

		for i := 0; i < sr.ResultCount; i++ {
			similarity := float64(sr.Scores[i])
			if similarity < matchThreshold {
				continue
			}

			chunkID, _ := chunkIDCol.Get(i)
			content, _ := contentCol.Get(i)
			source, _ := sourceCol.Get(i)
			page, _ := pageCol.Get(i)

			metadata := map[string]any{
				"source": asString(source),
			}
			if p, ok := page.(int64); ok && p > 0 {
				metadata["page"] = int(p)
			}

			rows = append(rows, retrieval.Row{
				ID:              asString(chunkID),
				Content:         asString(content),
				Similarity:      similarity,
				SimilarityKnown: true,
				Metadata:        metadata,
			})
		}
	}

	logger.Debug("vector search completed",
		zap.Int("match_count", matchCount),
		zap.Float64("match_threshold", matchThreshold),
		zap.Int("results", len(rows)),
	)

	return rows, nil
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

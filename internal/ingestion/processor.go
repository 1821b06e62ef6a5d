package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/metrics"
	"github.com/industrial-rag/backend/internal/storage/models"
	"github.com/industrial-rag/backend/internal/storage/sqlite"
	"github.com/industrial-rag/backend/internal/vector/milvus"
	"github.com/industrial-rag/backend/pkg/logger"
)

const (
	defaultChunkSize    = 1200
	defaultChunkOverlap = 1
	embedBatchSize      = 64
)

var whitespaceRe = regexp.MustCompile(`[ \t]+`)

// BatchEmbedder produces embeddings for a batch of chunk texts.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Page is one page of extracted document text. Sources without page
// structure submit a single page numbered 0.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// IngestRequest describes one document to index.
type IngestRequest struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	Pages  []Page `json:"pages"`
}

// IngestResult reports what was stored for a document.
type IngestResult struct {
	DocID  string `json:"doc_id"`
	Chunks int    `json:"chunks"`
	Pages  int    `json:"pages"`
}

// Processor chunks document text, embeds it, and writes the chunks to
// both the vector store and the relational catalog.
type Processor struct {
	embedder     BatchEmbedder
	vectorStore  *milvus.Client
	catalog      *sqlite.Client
	chunkSize    int
	chunkOverlap int
}

func NewProcessor(embedder BatchEmbedder, vectorStore *milvus.Client, catalog *sqlite.Client, chunkSize, chunkOverlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = defaultChunkOverlap
	}
	return &Processor{
		embedder:     embedder,
		vectorStore:  vectorStore,
		catalog:      catalog,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

func (p *Processor) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if strings.TrimSpace(req.Source) == "" {
		return nil, fmt.Errorf("document source is required")
	}
	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	docID := uuid.New().String()
	now := time.Now()

	var rawParts []string
	var chunks []chunkText
	for _, page := range req.Pages {
		text := CleanText(page.Text)
		if text == "" {
			continue
		}
		rawParts = append(rawParts, text)

		pageChunks, err := p.splitIntoChunks(text)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk page %d: %w", page.Number, err)
		}
		for _, c := range pageChunks {
			chunks = append(chunks, chunkText{text: c, page: page.Number})
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("document produced no chunks")
	}

	logger.Info("ingesting document",
		zap.String("doc_id", docID),
		zap.String("source", req.Source),
		zap.Int("pages", len(req.Pages)),
		zap.Int("chunks", len(chunks)),
	)

	if err := p.catalog.InsertDocument(&models.Document{
		ID:         docID,
		Source:     req.Source,
		Title:      req.Title,
		Pages:      len(req.Pages),
		RawContent: strings.Join(rawParts, "\n\n"),
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("failed to catalog document: %w", err)
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.text
		}

		embeddings, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk batch: %w", err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(embeddings), len(batch))
		}

		vectorChunks := make([]milvus.DocumentChunk, len(batch))
		for i, c := range batch {
			chunkID := uuid.New().String()
			vectorChunks[i] = milvus.DocumentChunk{
				ID:        chunkID,
				Embedding: embeddings[i],
				Content:   c.text,
				Source:    req.Source,
				Page:      c.page,
				Timestamp: now,
			}

			if err := p.catalog.InsertChunk(&models.DocumentChunk{
				ID:          chunkID,
				DocID:       docID,
				ChunkIndex:  start + i,
				Page:        c.page,
				Text:        c.text,
				EmbeddingID: chunkID,
				CreatedAt:   now,
			}); err != nil {
				return nil, fmt.Errorf("failed to catalog chunk: %w", err)
			}
		}

		if err := p.vectorStore.Insert(ctx, vectorChunks); err != nil {
			return nil, fmt.Errorf("failed to store chunk embeddings: %w", err)
		}
	}

	metrics.DocumentsIngested.Inc()

	return &IngestResult{
		DocID:  docID,
		Chunks: len(chunks),
		Pages:  len(req.Pages),
	}, nil
}

type chunkText struct {
	text string
	page int
}

// splitIntoChunks packs whole sentences into chunks of up to chunkSize
// characters, carrying the trailing chunkOverlap sentences into the next
// chunk so context is not cut mid-thought.
func (p *Processor) splitIntoChunks(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to segment text: %w", err)
	}

	sentences := doc.Sentences()
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []string
	var current []string
	currentLen := 0
	hasNew := false

	flush := func() {
		if len(current) == 0 || !hasNew {
			return
		}
		chunks = append(chunks, strings.Join(current, " "))

		overlap := p.chunkOverlap
		if overlap > len(current) {
			overlap = len(current)
		}
		current = append([]string(nil), current[len(current)-overlap:]...)
		currentLen = 0
		for _, s := range current {
			currentLen += len(s) + 1
		}
		hasNew = false
	}

	for _, sentence := range sentences {
		s := strings.TrimSpace(sentence.Text)
		if s == "" {
			continue
		}

		// Oversized single sentences get hard-split.
		if len(s) > p.chunkSize {
			flush()
			current = nil
			currentLen = 0
			for len(s) > p.chunkSize {
				chunks = append(chunks, s[:p.chunkSize])
				s = s[p.chunkSize:]
			}
			if s != "" {
				current = []string{s}
				currentLen = len(s) + 1
				hasNew = true
			}
			continue
		}

		if currentLen+len(s) > p.chunkSize {
			flush()
		}
		current = append(current, s)
		currentLen += len(s) + 1
		hasNew = true
	}

	if hasNew && len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks, nil
}

// CleanText normalizes whitespace in extracted document text.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = whitespaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n")
}

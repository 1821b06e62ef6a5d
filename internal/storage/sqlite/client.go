package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/storage/models"
	"github.com/industrial-rag/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	return c.db.Ping()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source TEXT UNIQUE NOT NULL,
		title TEXT,
		pages INTEGER,
		raw_content TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
	CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at);

	CREATE TABLE IF NOT EXISTS document_chunks (
		id TEXT PRIMARY KEY,
		doc_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		page INTEGER,
		text TEXT NOT NULL,
		embedding_id TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (doc_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_doc ON document_chunks(doc_id);

	CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		query_text TEXT NOT NULL,
		answer TEXT,
		confidence REAL,
		retrieved_chunks INTEGER,
		web_search_used INTEGER DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_session ON query_history(session_id);
	CREATE INDEX IF NOT EXISTS idx_query_created ON query_history(created_at);

	CREATE TABLE IF NOT EXISTS query_sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query_id TEXT NOT NULL,
		citation TEXT NOT NULL,
		FOREIGN KEY (query_id) REFERENCES query_history(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sources_query ON query_sources(query_id);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query_id TEXT NOT NULL,
		helpful INTEGER NOT NULL,
		issue_category TEXT,
		comment TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (query_id) REFERENCES query_history(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_query ON feedback(query_id);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertDocument(doc *models.Document) error {
	query := `
		INSERT INTO documents (id, source, title, pages, raw_content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			pages = excluded.pages,
			raw_content = excluded.raw_content,
			updated_at = excluded.updated_at
	`

	_, err := c.db.Exec(
		query,
		doc.ID,
		doc.Source,
		doc.Title,
		doc.Pages,
		doc.RawContent,
		doc.CreatedAt.Unix(),
		doc.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	logger.Debug("document inserted", zap.String("doc_id", doc.ID), zap.String("source", doc.Source))
	return nil
}

func (c *Client) InsertChunk(chunk *models.DocumentChunk) error {
	query := `INSERT INTO document_chunks (id, doc_id, chunk_index, page, text, embedding_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		chunk.ID,
		chunk.DocID,
		chunk.ChunkIndex,
		chunk.Page,
		chunk.Text,
		chunk.EmbeddingID,
		chunk.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	return nil
}

func (c *Client) InsertQueryRecord(record *models.QueryRecord) error {
	query := `
		INSERT INTO query_history (id, session_id, query_text, answer, confidence,
			retrieved_chunks, web_search_used, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	webSearchUsed := 0
	if record.WebSearchUsed {
		webSearchUsed = 1
	}

	_, err := c.db.Exec(
		query,
		record.ID,
		record.SessionID,
		record.QueryText,
		record.Answer,
		record.Confidence,
		record.RetrievedChunks,
		webSearchUsed,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}

	logger.Debug("query recorded",
		zap.String("query_id", record.ID),
		zap.Float64("confidence", record.Confidence),
	)

	return nil
}

func (c *Client) InsertQuerySource(source *models.QuerySource) error {
	query := `INSERT INTO query_sources (query_id, citation) VALUES (?, ?)`

	if _, err := c.db.Exec(query, source.QueryID, source.Citation); err != nil {
		return fmt.Errorf("failed to insert query source: %w", err)
	}

	return nil
}

func (c *Client) GetQueryHistory(sessionID string, limit int) ([]models.QueryRecord, error) {
	query := `
		SELECT id, query_text, answer, confidence, retrieved_chunks, web_search_used, created_at
		FROM query_history
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	defer rows.Close()

	var records []models.QueryRecord
	for rows.Next() {
		var r models.QueryRecord
		var createdAt int64
		var webSearchUsed int

		if err := rows.Scan(&r.ID, &r.QueryText, &r.Answer, &r.Confidence, &r.RetrievedChunks, &webSearchUsed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.SessionID = sessionID
		r.WebSearchUsed = webSearchUsed == 1
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

func (c *Client) StoreFeedback(feedback *models.Feedback) error {
	query := `INSERT INTO feedback (query_id, helpful, issue_category, comment, created_at) VALUES (?, ?, ?, ?, ?)`

	helpful := 0
	if feedback.Helpful {
		helpful = 1
	}

	_, err := c.db.Exec(
		query,
		feedback.QueryID,
		helpful,
		feedback.IssueCategory,
		feedback.Comment,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	logger.Info("feedback stored",
		zap.String("query_id", feedback.QueryID),
		zap.Bool("helpful", feedback.Helpful),
	)

	return nil
}

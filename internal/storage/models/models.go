package models

import "time"

type Document struct {
	ID         string
	Source     string
	Title      string
	Pages      int
	RawContent string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type DocumentChunk struct {
	ID          string
	DocID       string
	ChunkIndex  int
	Page        int
	Text        string
	EmbeddingID string
	CreatedAt   time.Time
}

type QueryRecord struct {
	ID              string
	SessionID       string
	QueryText       string
	Answer          string
	Confidence      float64
	RetrievedChunks int
	WebSearchUsed   bool
	LatencyMS       int
	CreatedAt       time.Time
}

type QuerySource struct {
	ID       int
	QueryID  string
	Citation string
}

type Feedback struct {
	ID            int
	QueryID       string
	Helpful       bool
	IssueCategory string
	Comment       string
	CreatedAt     time.Time
}

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/apperror"
	"github.com/industrial-rag/backend/internal/llm"
	"github.com/industrial-rag/backend/internal/metrics"
	"github.com/industrial-rag/backend/internal/retrieval"
	"github.com/industrial-rag/backend/internal/session"
	"github.com/industrial-rag/backend/internal/storage/models"
	"github.com/industrial-rag/backend/internal/storage/sqlite"
	"github.com/industrial-rag/backend/pkg/logger"
)

const noAnswerMessage = "I couldn't find relevant information to answer your question. " +
	"Try rephrasing it, or ask about a topic covered by the indexed documentation."

// Retriever is the hybrid retrieval stage of the answer pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, query, sessionID string, k int) (*retrieval.Result, error)
}

// Generator produces the final answer text from question, context and history.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (string, error)
}

type Config struct {
	MaxQueryLength   int
	HistoryExchanges int
}

// Request is one chat turn. A missing SessionID starts a new conversation.
type Request struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	TopK      int    `json:"top_k"`
}

type Response struct {
	Answer               string   `json:"answer"`
	Sources              []string `json:"sources"`
	Confidence           float64  `json:"confidence"`
	RetrievedChunks      int      `json:"retrieved_chunks"`
	WebSearchUsed        bool     `json:"web_search_used"`
	WebSearchesRemaining int      `json:"web_searches_remaining"`
	SessionID            string   `json:"session_id"`
	QueryID              string   `json:"query_id"`
	LatencyMS            int      `json:"latency_ms"`
}

// Engine orchestrates one chat turn: validate, retrieve, generate, record.
type Engine struct {
	retriever Retriever
	generator Generator
	sessions  *session.Store
	history   *sqlite.Client
	cfg       Config
}

func NewEngine(retriever Retriever, generator Generator, sessions *session.Store, history *sqlite.Client, cfg Config) *Engine {
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = 1000
	}
	if cfg.HistoryExchanges <= 0 {
		cfg.HistoryExchanges = 3
	}
	return &Engine{
		retriever: retriever,
		generator: generator,
		sessions:  sessions,
		history:   history,
		cfg:       cfg,
	}
}

func (e *Engine) Chat(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, apperror.Validation("question must not be empty", map[string]any{
			"field": "question",
		})
	}
	if len(question) > e.cfg.MaxQueryLength {
		return nil, apperror.Validation("question exceeds maximum length", map[string]any{
			"field":      "question",
			"max_length": e.cfg.MaxQueryLength,
			"length":     len(question),
		})
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	e.sessions.GetOrCreate(sessionID)
	metrics.SessionsActive.Set(float64(e.sessions.Len()))

	logger.Info("processing chat turn",
		zap.String("session_id", sessionID),
		zap.Int("question_length", len(question)),
	)

	result, err := e.retriever.Retrieve(ctx, question, sessionID, req.TopK)
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ConfidenceScore.Observe(result.ConfidenceScore)
	metrics.RetrievedChunks.Observe(float64(len(result.Documents)))
	if result.WebSearchUsed {
		metrics.WebSearchTriggered.Inc()
	}

	queryID := uuid.New().String()

	if len(result.Documents) == 0 {
		resp := &Response{
			Answer:               noAnswerMessage,
			Sources:              []string{},
			Confidence:           0.0,
			RetrievedChunks:      0,
			WebSearchUsed:        result.WebSearchUsed,
			WebSearchesRemaining: result.WebSearchesRemaining,
			SessionID:            sessionID,
			QueryID:              queryID,
			LatencyMS:            int(time.Since(start).Milliseconds()),
		}
		e.sessions.AppendExchange(sessionID, question, resp.Answer)
		e.record(queryID, sessionID, question, resp)
		metrics.QueryTotal.WithLabelValues("no_results").Inc()
		metrics.QueryDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
		return resp, nil
	}

	answer, err := e.generator.Generate(ctx, llm.GenerateRequest{
		Question: question,
		Context:  retrieval.JoinContents(result.Documents),
		History:  e.recentHistory(sessionID),
	})
	if err != nil {
		metrics.QueryTotal.WithLabelValues("error").Inc()
		return nil, apperror.New(apperror.KindLLM, "failed to generate answer", err, map[string]any{
			"session_id": sessionID,
		})
	}

	e.sessions.AppendExchange(sessionID, question, answer)

	resp := &Response{
		Answer:               answer,
		Sources:              result.Sources,
		Confidence:           result.ConfidenceScore,
		RetrievedChunks:      len(result.Documents),
		WebSearchUsed:        result.WebSearchUsed,
		WebSearchesRemaining: result.WebSearchesRemaining,
		SessionID:            sessionID,
		QueryID:              queryID,
		LatencyMS:            int(time.Since(start).Milliseconds()),
	}

	e.record(queryID, sessionID, question, resp)

	metrics.QueryTotal.WithLabelValues("success").Inc()
	metrics.QueryDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())

	logger.Info("chat turn completed",
		zap.String("session_id", sessionID),
		zap.Float64("confidence", resp.Confidence),
		zap.Int("retrieved_chunks", resp.RetrievedChunks),
		zap.Bool("web_search_used", resp.WebSearchUsed),
		zap.Int("latency_ms", resp.LatencyMS),
	)

	return resp, nil
}

// recentHistory returns the last HistoryExchanges pairs for the prompt.
func (e *Engine) recentHistory(sessionID string) []llm.HistoryEntry {
	exchanges, err := e.sessions.History(sessionID)
	if err != nil {
		return nil
	}

	if len(exchanges) > e.cfg.HistoryExchanges {
		exchanges = exchanges[len(exchanges)-e.cfg.HistoryExchanges:]
	}

	entries := make([]llm.HistoryEntry, len(exchanges))
	for i, ex := range exchanges {
		entries[i] = llm.HistoryEntry{Question: ex.Question, Answer: ex.Answer}
	}
	return entries
}

// record writes the audit trail. Persistence failures are logged, never
// surfaced to the caller.
func (e *Engine) record(queryID, sessionID, question string, resp *Response) {
	if e.history == nil {
		return
	}

	err := e.history.InsertQueryRecord(&models.QueryRecord{
		ID:              queryID,
		SessionID:       sessionID,
		QueryText:       question,
		Answer:          resp.Answer,
		Confidence:      resp.Confidence,
		RetrievedChunks: resp.RetrievedChunks,
		WebSearchUsed:   resp.WebSearchUsed,
		LatencyMS:       resp.LatencyMS,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		logger.Warn("failed to record query", zap.String("query_id", queryID), zap.Error(err))
		return
	}

	for _, citation := range resp.Sources {
		if err := e.history.InsertQuerySource(&models.QuerySource{
			QueryID:  queryID,
			Citation: citation,
		}); err != nil {
			logger.Warn("failed to record query source", zap.Error(err))
		}
	}
}

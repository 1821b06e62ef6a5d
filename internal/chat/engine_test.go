package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industrial-rag/backend/internal/apperror"
	"github.com/industrial-rag/backend/internal/llm"
	"github.com/industrial-rag/backend/internal/retrieval"
	"github.com/industrial-rag/backend/internal/session"
)

type stubRetriever struct {
	result *retrieval.Result
	err    error

	gotQuery     string
	gotSessionID string
	gotK         int
}

func (s *stubRetriever) Retrieve(ctx context.Context, query, sessionID string, k int) (*retrieval.Result, error) {
	s.gotQuery = query
	s.gotSessionID = sessionID
	s.gotK = k
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubGenerator struct {
	answer string
	err    error

	gotReq llm.GenerateRequest
	calls  int
}

func (s *stubGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	s.calls++
	s.gotReq = req
	return s.answer, s.err
}

func resultWithDocs() *retrieval.Result {
	return &retrieval.Result{
		Documents: []retrieval.Document{
			{
				Content:         "conveyor belt maintenance procedure",
				Similarity:      0.9,
				SimilarityKnown: true,
				Origin:          retrieval.LocalOriginWithPage("manual.pdf", 4),
			},
		},
		ConfidenceScore:      0.9,
		Sources:              []string{"manual.pdf - Page 4"},
		WebSearchUsed:        false,
		WebSearchesRemaining: 5,
	}
}

func newTestEngine(r *stubRetriever, g *stubGenerator) (*Engine, *session.Store) {
	sessions := session.NewStore(session.Config{MaxHistory: 10, MaxWebSearches: 5})
	engine := NewEngine(r, g, sessions, nil, Config{MaxQueryLength: 1000, HistoryExchanges: 3})
	return engine, sessions
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	engine, sessions := newTestEngine(&stubRetriever{}, &stubGenerator{})
	defer sessions.Stop()

	_, err := engine.Chat(context.Background(), Request{Question: "   "})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestChatRejectsOversizedQuestion(t *testing.T) {
	engine, sessions := newTestEngine(&stubRetriever{}, &stubGenerator{})
	defer sessions.Stop()

	_, err := engine.Chat(context.Background(), Request{Question: strings.Repeat("a", 1001)})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestChatSuccess(t *testing.T) {
	retriever := &stubRetriever{result: resultWithDocs()}
	generator := &stubGenerator{answer: "Check the belt tension weekly."}
	engine, sessions := newTestEngine(retriever, generator)
	defer sessions.Stop()

	resp, err := engine.Chat(context.Background(), Request{
		Question:  "How often should belt tension be checked?",
		SessionID: "s1",
		TopK:      5,
	})
	require.NoError(t, err)

	assert.Equal(t, "Check the belt tension weekly.", resp.Answer)
	assert.Equal(t, []string{"manual.pdf - Page 4"}, resp.Sources)
	assert.Equal(t, 0.9, resp.Confidence)
	assert.Equal(t, 1, resp.RetrievedChunks)
	assert.Equal(t, "s1", resp.SessionID)
	assert.NotEmpty(t, resp.QueryID)

	assert.Equal(t, "How often should belt tension be checked?", retriever.gotQuery)
	assert.Equal(t, "s1", retriever.gotSessionID)
	assert.Equal(t, 5, retriever.gotK)
	assert.Contains(t, generator.gotReq.Context, "conveyor belt maintenance procedure")

	history, err := sessions.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Check the belt tension weekly.", history[0].Answer)
}

func TestChatGeneratesSessionID(t *testing.T) {
	engine, sessions := newTestEngine(&stubRetriever{result: resultWithDocs()}, &stubGenerator{answer: "a"})
	defer sessions.Stop()

	resp, err := engine.Chat(context.Background(), Request{Question: "q"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	_, err = sessions.History(resp.SessionID)
	assert.NoError(t, err)
}

func TestChatNoDocumentsReturnsCannedAnswer(t *testing.T) {
	retriever := &stubRetriever{result: &retrieval.Result{
		Documents:            nil,
		ConfidenceScore:      0.0,
		Sources:              []string{},
		WebSearchesRemaining: 5,
	}}
	generator := &stubGenerator{answer: "should not be called"}
	engine, sessions := newTestEngine(retriever, generator)
	defer sessions.Stop()

	resp, err := engine.Chat(context.Background(), Request{Question: "q", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, noAnswerMessage, resp.Answer)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Equal(t, 0, resp.RetrievedChunks)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, 0, generator.calls)

	history, err := sessions.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, noAnswerMessage, history[0].Answer)
}

func TestChatRetrieverErrorPropagates(t *testing.T) {
	retriever := &stubRetriever{err: apperror.Embedding("failed to embed query", errors.New("down"))}
	engine, sessions := newTestEngine(retriever, &stubGenerator{})
	defer sessions.Stop()

	_, err := engine.Chat(context.Background(), Request{Question: "q"})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindEmbedding))
}

func TestChatGeneratorErrorWrappedAsLLM(t *testing.T) {
	generator := &stubGenerator{err: errors.New("model unavailable")}
	engine, sessions := newTestEngine(&stubRetriever{result: resultWithDocs()}, generator)
	defer sessions.Stop()

	_, err := engine.Chat(context.Background(), Request{Question: "q", SessionID: "s1"})

	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindLLM))

	// The failed turn is not recorded in the conversation.
	history, histErr := sessions.History("s1")
	require.NoError(t, histErr)
	assert.Empty(t, history)
}

func TestChatPassesRecentHistory(t *testing.T) {
	generator := &stubGenerator{answer: "answer"}
	engine, sessions := newTestEngine(&stubRetriever{result: resultWithDocs()}, generator)
	defer sessions.Stop()

	for i := 0; i < 5; i++ {
		_, err := engine.Chat(context.Background(), Request{Question: "q", SessionID: "s1"})
		require.NoError(t, err)
	}

	// Only the last three exchanges make it into the prompt.
	require.Len(t, generator.gotReq.History, 3)
	assert.Equal(t, "answer", generator.gotReq.History[2].Answer)
}

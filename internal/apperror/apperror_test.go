package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := Validation("question must not be empty", map[string]any{"field": "question"})

	assert.Equal(t, "validation_error: question must not be empty", err.Error())
}

func TestErrorMessageWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Retrieval("vector store search failed", cause)

	assert.Equal(t, "retrieval_error: vector store search failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsKind(t *testing.T) {
	err := Embedding("failed to embed query", errors.New("down"))

	assert.True(t, IsKind(err, KindEmbedding))
	assert.False(t, IsKind(err, KindRetrieval))
	assert.False(t, IsKind(errors.New("plain"), KindEmbedding))
	assert.False(t, IsKind(nil, KindEmbedding))
}

func TestIsKindThroughWrapping(t *testing.T) {
	inner := LLM("failed to generate answer", errors.New("timeout"))
	wrapped := fmt.Errorf("chat turn failed: %w", inner)

	assert.True(t, IsKind(wrapped, KindLLM))
}

func TestDetailsPreserved(t *testing.T) {
	err := Configuration("llm.apiKey is required", map[string]any{"env": "INDUSTRIAL_RAG_LLM_APIKEY"})

	assert.Equal(t, KindConfiguration, err.Kind)
	assert.Equal(t, "INDUSTRIAL_RAG_LLM_APIKEY", err.Details["env"])
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/metrics"
	"github.com/industrial-rag/backend/pkg/circuitbreaker"
	"github.com/industrial-rag/backend/pkg/logger"
	"github.com/industrial-rag/backend/pkg/retry"
)

const (
	embeddingTimeout = 15 * time.Second

	systemPrompt = `You are an expert assistant for warehouse automation engineering.
Use the provided documentation context to answer the question.
If the answer cannot be found in the context, say you don't know rather than guessing.
Be concise, technical, and cite concrete facts from the context.`
)

// HistoryEntry is one prior question/answer pair included in the prompt.
type HistoryEntry struct {
	Question string
	Answer   string
}

// GenerateRequest carries the variable slots of the fixed answer template.
type GenerateRequest struct {
	Question string
	Context  string
	History  []HistoryEntry
}

type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	timeout        time.Duration
	cb             *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewClient(apiKey, model, embeddingModel string, temperature float32, maxTokens, timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 60
	}

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("embedding_model", embeddingModel),
	)

	return &Client{
		client:         openai.NewClient(apiKey),
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
		timeout:        time.Duration(timeoutSec) * time.Second,
		cb:             cb,
		retryConfig:    retryConfig,
	}
}

// EmbedQuery maps text to a fixed-dimension vector.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embeddingTimeout)
	defer cancel()

	var embedding []float32

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: []string{text},
				Model: openai.EmbeddingModel(c.embeddingModel),
			})
			if err != nil {
				return fmt.Errorf("failed to generate embedding: %w", err)
			}
			if len(resp.Data) == 0 {
				return fmt.Errorf("embedding response contained no data")
			}

			embedding = make([]float32, len(resp.Data[0].Embedding))
			copy(embedding, resp.Data[0].Embedding)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return embedding, nil
}

// EmbedBatch embeds texts in batches of 100, used by ingestion.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var embeddings [][]float32

	const batchSize = 100
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		err := c.cb.Execute(ctx, func() error {
			return retry.Do(ctx, c.retryConfig, func() error {
				resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
					Input: batch,
					Model: openai.EmbeddingModel(c.embeddingModel),
				})
				if err != nil {
					return fmt.Errorf("failed to generate batch embeddings: %w", err)
				}

				for _, data := range resp.Data {
					embedding := make([]float32, len(data.Embedding))
					copy(embedding, data.Embedding)
					embeddings = append(embeddings, embedding)
				}
				return nil
			})
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("batch embeddings generated", zap.Int("count", len(embeddings)))

	return embeddings, nil
}

// Generate composes an answer from the question, retrieved context and the
// recent conversation history.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt := buildUserPrompt(req)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}

	var answer string

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       c.model,
				Messages:    messages,
				Temperature: c.temperature,
				MaxTokens:   c.maxTokens,
			})
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion response contained no choices")
			}

			logger.Debug("completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)
			metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

			answer = resp.Choices[0].Message.Content
			return nil
		})
	})

	if err != nil {
		return "", err
	}

	return answer, nil
}

func buildUserPrompt(req GenerateRequest) string {
	var b strings.Builder

	if len(req.History) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, entry := range req.History {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", entry.Question, entry.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("Context:\n")
	b.WriteString(req.Context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(req.Question)
	b.WriteString("\nAnswer:")

	return b.String()
}

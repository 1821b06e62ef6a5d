package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/industrial-rag/backend/internal/api"
	"github.com/industrial-rag/backend/internal/api/handlers"
	"github.com/industrial-rag/backend/internal/cache/redis"
	"github.com/industrial-rag/backend/internal/chat"
	"github.com/industrial-rag/backend/internal/ingestion"
	"github.com/industrial-rag/backend/internal/llm"
	"github.com/industrial-rag/backend/internal/metrics"
	"github.com/industrial-rag/backend/internal/middleware/ratelimit"
	"github.com/industrial-rag/backend/internal/retrieval"
	"github.com/industrial-rag/backend/internal/search/duckduckgo"
	"github.com/industrial-rag/backend/internal/session"
	"github.com/industrial-rag/backend/internal/storage/sqlite"
	"github.com/industrial-rag/backend/internal/vector/milvus"
	"github.com/industrial-rag/backend/pkg/config"
	"github.com/industrial-rag/backend/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting industrial-rag backend", zap.String("version", version))

	metrics.Init()

	db, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		logger.Fatal("failed to initialize sqlite", zap.Error(err))
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	vectorStore, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
		cfg.Milvus.ContentField,
	)
	if err != nil {
		logger.Fatal("failed to initialize milvus", zap.Error(err))
	}
	defer vectorStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := vectorStore.EnsureCollection(ctx); err != nil {
		cancel()
		logger.Fatal("failed to ensure collection", zap.Error(err))
	}
	cancel()

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	var embedder retrieval.Embedder = llmClient
	if cfg.Redis.Enabled {
		cache, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, embedding cache disabled", zap.Error(err))
		} else {
			defer cache.Close()
			ttl := time.Duration(cfg.Redis.TTLHours) * time.Hour
			embedder = llm.NewCachedEmbedder(llmClient, cache, ttl)
		}
	}

	var webSearcher retrieval.WebSearcher = duckduckgo.Disabled{}
	if cfg.Search.Enabled {
		webSearcher = duckduckgo.NewClient(time.Duration(cfg.Search.TimeoutSec) * time.Second)
	}

	sessions := session.NewStore(session.Config{
		MaxHistory:     cfg.Session.MaxHistory,
		MaxWebSearches: cfg.Search.MaxSearchesPerSession,
		IdleTTL:        time.Duration(cfg.Session.IdleTTLMinutes) * time.Minute,
	})
	defer sessions.Stop()

	localRetriever := retrieval.NewLocalRetriever(embedder, vectorStore, cfg.Retrieval.MatchThreshold)
	scorer := retrieval.NewConfidenceScorer(cfg.Retrieval.NeutralSimilarity)

	hybrid := retrieval.NewHybridRetriever(localRetriever, webSearcher, sessions, scorer, retrieval.Config{
		WebSearchEnabled:  cfg.Search.Enabled,
		MinConfidence:     cfg.Retrieval.MinConfidence,
		MaxWebResults:     cfg.Search.MaxResults,
		DomainHint:        cfg.Search.DomainHint,
		WebBaseSimilarity: cfg.Retrieval.WebBaseSimilarity,
		WebSimilarityStep: cfg.Retrieval.WebSimilarityStep,
		DefaultTopK:       cfg.Retrieval.TopK,
	})

	engine := chat.NewEngine(hybrid, llmClient, sessions, db, chat.Config{
		MaxQueryLength:   cfg.Retrieval.MaxQueryLength,
		HistoryExchanges: cfg.Retrieval.HistoryExchanges,
	})

	processor := ingestion.NewProcessor(llmClient, vectorStore, db, 0, 0)

	limiter := ratelimit.NewLimiter(120, 20)
	defer limiter.Stop()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	api.SetupRoutes(app, api.Handlers{
		Chat:     handlers.NewChatHandler(engine),
		Session:  handlers.NewSessionHandler(sessions),
		Document: handlers.NewDocumentHandler(processor),
		Feedback: handlers.NewFeedbackHandler(db),
		Health: handlers.NewHealthHandler(version, func() error {
			return db.Ping()
		}),
		WS:      handlers.NewWebSocketHandler(engine),
		Limiter: limiter,
	})

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logger.Info("server listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/industrial-rag/backend/internal/apperror"
)

type Config struct {
	Server    ServerConfig
	Milvus    MilvusConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Search    SearchConfig
	Retrieval RetrievalConfig
	Session   SessionConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type MilvusConfig struct {
	Endpoint       string
	APIKey         string
	CollectionName string
	VectorDim      int
	ContentField   string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLHours int
}

type LLMConfig struct {
	Provider       string
	Model          string
	APIKey         string
	Temperature    float32
	MaxTokens      int
	TimeoutSec     int
	EmbeddingModel string
	EmbeddingDim   int
}

// SearchConfig controls the web-search fallback capability.
type SearchConfig struct {
	Enabled               bool
	MaxResults            int
	MaxSearchesPerSession int
	DomainHint            string
	TimeoutSec            int
}

// RetrievalConfig carries the hybrid-retrieval policy knobs. The synthetic
// web similarity constants are configuration, not hardcoded heuristics.
type RetrievalConfig struct {
	TopK              int
	MatchThreshold    float64
	MinConfidence     float64
	NeutralSimilarity float64
	WebBaseSimilarity float64
	WebSimilarityStep float64
	MaxQueryLength    int
	HistoryExchanges  int
}

type SessionConfig struct {
	MaxHistory     int
	IdleTTLMinutes int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/industrial-rag")

	viper.SetEnvPrefix("INDUSTRIAL_RAG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the process cannot serve traffic with.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return apperror.Configuration("llm.apiKey is required", map[string]any{
			"env": "INDUSTRIAL_RAG_LLM_APIKEY",
		})
	}
	if c.Milvus.Endpoint == "" {
		return apperror.Configuration("milvus.endpoint is required", map[string]any{
			"env": "INDUSTRIAL_RAG_MILVUS_ENDPOINT",
		})
	}
	if c.Retrieval.TopK <= 0 {
		return apperror.Configuration("retrieval.topK must be positive", map[string]any{
			"value": c.Retrieval.TopK,
		})
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "whdocuments")
	viper.SetDefault("milvus.vectorDim", 1536)
	viper.SetDefault("milvus.contentField", "content")

	viper.SetDefault("sqlite.path", "./data/industrialrag.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlHours", 24)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.maxTokens", 2048)
	viper.SetDefault("llm.timeoutSec", 60)
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.embeddingDim", 1536)

	viper.SetDefault("search.enabled", true)
	viper.SetDefault("search.maxResults", 3)
	viper.SetDefault("search.maxSearchesPerSession", 5)
	viper.SetDefault("search.domainHint", "warehouse automation")
	viper.SetDefault("search.timeoutSec", 10)

	viper.SetDefault("retrieval.topK", 5)
	viper.SetDefault("retrieval.matchThreshold", 0.0)
	viper.SetDefault("retrieval.minConfidence", 0.5)
	viper.SetDefault("retrieval.neutralSimilarity", 0.5)
	viper.SetDefault("retrieval.webBaseSimilarity", 0.6)
	viper.SetDefault("retrieval.webSimilarityStep", 0.05)
	viper.SetDefault("retrieval.maxQueryLength", 1000)
	viper.SetDefault("retrieval.historyExchanges", 3)

	viper.SetDefault("session.maxHistory", 10)
	viper.SetDefault("session.idleTTLMinutes", 60)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}

package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "industrial_rag_query_duration_seconds",
			Help:    "Chat query processing duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "industrial_rag_query_total",
			Help: "Total number of chat queries processed",
		},
		[]string{"status"},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "industrial_rag_confidence_score",
			Help:    "Final retrieval confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	RetrievedChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "industrial_rag_retrieved_chunks",
			Help:    "Number of documents in the merged retrieval set",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)

	WebSearchTriggered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "industrial_rag_web_search_triggered_total",
			Help: "Total number of web-search fallbacks performed",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "industrial_rag_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "industrial_rag_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	DocumentsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "industrial_rag_documents_ingested_total",
			Help: "Total documents ingested into the vector store",
		},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "industrial_rag_sessions_active",
			Help: "Number of live sessions in the session store",
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "industrial_rag_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)
)

func Init() {
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryTotal)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(RetrievedChunks)
	prometheus.MustRegister(WebSearchTriggered)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(DocumentsIngested)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(LLMTokensUsed)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

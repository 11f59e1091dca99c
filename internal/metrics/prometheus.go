package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "echo_recall_sessions_started_total",
			Help: "Total learning sessions started",
		},
	)

	ExtractionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echo_recall_extraction_failures_total",
			Help: "Total content extractions that could not produce usable text",
		},
		[]string{"reason"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "echo_recall_llm_request_duration_seconds",
			Help:    "LLM round-trip duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"operation"},
	)

	LLMErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echo_recall_llm_errors_total",
			Help: "Total LLM calls that failed",
		},
		[]string{"operation", "kind"},
	)

	RecallScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "echo_recall_score",
			Help:    "Recall comparison scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	RecordsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "echo_recall_records_saved_total",
			Help: "Total learning records saved to history",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echo_recall_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echo_recall_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(ExtractionFailures)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMErrors)
	prometheus.MustRegister(RecallScores)
	prometheus.MustRegister(RecordsSaved)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

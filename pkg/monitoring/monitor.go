package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 30},
		},
		[]string{"method", "endpoint"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Latency of generative model calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider", "purpose", "outcome"},
	)

	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Tokens consumed by generative model calls",
		},
		[]string{"provider", "direction"},
	)

	AssessmentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_created_total",
			Help: "Assessments created, by level",
		},
		[]string{"level"},
	)

	AssessmentScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assessment_score_percent",
			Help:    "Distribution of completed assessment scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	GenerationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_generation_failures_total",
			Help: "Failed question-set or improvement-tip generations",
		},
		[]string{"stage"},
	)

	AssessmentsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assessments_by_status",
			Help: "Stored assessments grouped by status",
		},
		[]string{"status"},
	)

	initOnce sync.Once
)

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			LLMRequestDuration,
			LLMTokens,
			AssessmentsCreated,
			AssessmentScores,
			GenerationFailures,
			AssessmentsByStatus,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

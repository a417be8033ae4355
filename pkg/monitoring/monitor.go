package monitoring

import (
	"strconv"
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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	QuestionsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_questions_served_total",
			Help: "Questions handed out, by selection mode (fresh or random)",
		},
		[]string{"mode"},
	)

	AnswersScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_scored_total",
			Help: "Submitted answers, by result (correct, wrong, unanswered)",
		},
		[]string{"result"},
	)

	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "background_jobs_total",
			Help: "Background jobs handled by the worker",
		},
		[]string{"job", "status"},
	)

	AccountsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_purged_total",
			Help: "Never activated accounts deleted by the periodic sweep",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(QuestionsServed)
	prometheus.MustRegister(AnswersScored)
	prometheus.MustRegister(JobsProcessed)
	prometheus.MustRegister(AccountsPurged)
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

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
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// ProgressEvents 按内容类型和是否完成统计学习事件
	ProgressEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_progress_events_total",
			Help: "Progress events tracked, by content type and completion verdict",
		},
		[]string{"content_type", "completed"},
	)

	QuizAttemptsGraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_quiz_attempts_graded_total",
			Help: "Quiz attempts graded, by pass/fail",
		},
		[]string{"passed"},
	)

	EnrollmentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_enrollment_status_transitions_total",
			Help: "Enrollment status changes caused by progress recomputation",
		},
		[]string{"from", "to"},
	)

	RecomputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lms_recompute_duration_seconds",
			Help:    "Duration of progress recomputation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)

	LockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lms_lock_wait_seconds",
			Help:    "Time spent waiting for a per-key lock",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			ProgressEvents,
			QuizAttemptsGraded,
			EnrollmentTransitions,
			RecomputeDuration,
			LockWait,
		)
	})
}

// ObserveRecompute 用法: defer monitoring.ObserveRecompute("lesson", time.Now())
func ObserveRecompute(scope string, start time.Time) {
	RecomputeDuration.WithLabelValues(scope).Observe(time.Since(start).Seconds())
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filegate_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "filegate_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filegate_uploads_total",
		Help: "Upload attempts by result.",
	}, []string{"result"})

	uploadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "filegate_upload_bytes_total",
		Help: "Bytes stored by successful uploads.",
	})

	purgedObjects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "filegate_purged_objects_total",
		Help: "Oversized objects deleted during listing.",
	})

	purgedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "filegate_purged_bytes_total",
		Help: "Bytes freed by purging oversized objects.",
	})
)

// InitMetrics registers collectors with the default registry. Safe to call
// more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			uploads,
			uploadBytes,
			purgedObjects,
			purgedBytes,
		)
	})
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	InitMetrics()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	InitMetrics()
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// Recorder turns upload and purge events into counter updates.
type Recorder struct{}

// NewRecorder returns a Recorder backed by the default registry.
func NewRecorder() Recorder {
	InitMetrics()
	return Recorder{}
}

func (Recorder) Uploaded(sizeBytes int64) {
	uploads.WithLabelValues("success").Inc()
	uploadBytes.Add(float64(sizeBytes))
}

func (Recorder) UploadFailed(reason string) {
	uploads.WithLabelValues(reason).Inc()
}

func (Recorder) Purged(sizeBytes int64) {
	purgedObjects.Inc()
	purgedBytes.Add(float64(sizeBytes))
}

package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	snapshots       *prometheus.CounterVec
	feedErrors      *prometheus.CounterVec
	collectionSize  *prometheus.GaugeVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_mutations_total",
		Help: "Document store writes by collection, operation and outcome",
	}, []string{"collection", "op", "outcome"})

	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_snapshots_total",
		Help: "Collection snapshots applied to application state",
	}, []string{"collection"})

	feedErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_feed_errors_total",
		Help: "Errors reported by collection subscriptions",
	}, []string{"collection"})

	collectionSize := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "collection_documents",
		Help: "Documents in the latest snapshot of each collection",
	}, []string{"collection"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, mutations, snapshots, feedErrors, collectionSize, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		mutations:       mutations,
		snapshots:       snapshots,
		feedErrors:      feedErrors,
		collectionSize:  collectionSize,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveMutation counts a document store write.
func (m *MetricsService) ObserveMutation(collection, op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mutations.WithLabelValues(collection, op, outcome).Inc()
}

// ObserveSnapshot records a delivered collection snapshot and its size.
func (m *MetricsService) ObserveSnapshot(collection string, size int) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(collection).Inc()
	m.collectionSize.WithLabelValues(collection).Set(float64(size))
}

// ObserveFeedError counts a subscription failure.
func (m *MetricsService) ObserveFeedError(collection string) {
	if m == nil {
		return
	}
	m.feedErrors.WithLabelValues(collection).Inc()
}

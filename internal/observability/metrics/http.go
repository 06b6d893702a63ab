package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	assistantRequestsTotal *prometheus.CounterVec
	retrievalsTotal        *prometheus.CounterVec
	retrievedChunks        *prometheus.HistogramVec
	pipelineDuration       *prometheus.HistogramVec
	hydeFallbacksTotal     *prometheus.CounterVec
	rerankFallbacksTotal   *prometheus.CounterVec
	droppedCitationsTotal  *prometheus.CounterVec
	streamTokensTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	assistantRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "pipeline",
			Name:      "assistant_requests_total",
			Help:      "Total completed assistant executions by generation mode.",
		},
		[]string{"service", "endpoint", "mode"},
	)
	retrievalsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "pipeline",
			Name:      "retrievals_total",
			Help:      "Total retrieval runs by search mode.",
		},
		[]string{"service", "mode"},
	)
	retrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rag",
			Subsystem: "pipeline",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per assistant execution.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	pipelineDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rag",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Assistant execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	hydeFallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "pipeline",
			Name:      "hyde_fallbacks_total",
			Help:      "Total retrievals that fell back to the original query after a HyDE failure.",
		},
		[]string{"service"},
	)
	rerankFallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "pipeline",
			Name:      "rerank_fallbacks_total",
			Help:      "Total retrievals that returned unranked results after a reranker failure.",
		},
		[]string{"service"},
	)
	droppedCitationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "pipeline",
			Name:      "dropped_citations_total",
			Help:      "Total out-of-range chunk indices dropped from cited answers.",
		},
		[]string{"service"},
	)
	streamTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "pipeline",
			Name:      "stream_tokens_total",
			Help:      "Total tokens emitted over streaming responses.",
		},
		[]string{"service", "model"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		assistantRequestsTotal,
		retrievalsTotal,
		retrievedChunks,
		pipelineDuration,
		hydeFallbacksTotal,
		rerankFallbacksTotal,
		droppedCitationsTotal,
		streamTokensTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		assistantRequestsTotal: assistantRequestsTotal,
		retrievalsTotal:        retrievalsTotal,
		retrievedChunks:        retrievedChunks,
		pipelineDuration:       pipelineDuration,
		hydeFallbacksTotal:     hydeFallbacksTotal,
		rerankFallbacksTotal:   rerankFallbacksTotal,
		droppedCitationsTotal:  droppedCitationsTotal,
		streamTokensTotal:      streamTokensTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/collections/"):
		return "/v1/collections/{name}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAssistantExecution(service, endpoint, mode string, retrievedDocs int, duration time.Duration) {
	if mode == "" {
		mode = "standard"
	}
	m.assistantRequestsTotal.WithLabelValues(service, endpoint, mode).Inc()
	m.retrievedChunks.WithLabelValues(service, endpoint).Observe(float64(retrievedDocs))
	m.pipelineDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordRetrieval(service, mode string) {
	if mode == "" {
		mode = "dense"
	}
	m.retrievalsTotal.WithLabelValues(service, mode).Inc()
}

func (m *HTTPServerMetrics) RecordHydeFallback(service string) {
	m.hydeFallbacksTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordRerankFallback(service string) {
	m.rerankFallbacksTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordDroppedCitations(service string, count int) {
	if count <= 0 {
		return
	}
	m.droppedCitationsTotal.WithLabelValues(service).Add(float64(count))
}

func (m *HTTPServerMetrics) RecordStreamTokens(service, model string, count int) {
	if count <= 0 {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.streamTokensTotal.WithLabelValues(service, model).Add(float64(count))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}

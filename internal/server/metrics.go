package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panelglot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panelglot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Pipeline metrics
	pageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panelglot_page_requests_total",
			Help: "Total number of page translation requests",
		},
		[]string{"transport", "status"}, // transport: http, websocket
	)

	pageProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "panelglot_page_processing_duration_seconds",
			Help:    "Page translation duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"transport"},
	)

	pageBubbleCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "panelglot_page_bubbles",
			Help:    "Number of overlay bubbles per translated page",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 40, 80},
		},
	)

	poolRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "panelglot_pool_rejections_total",
			Help: "Requests rejected because a worker pool queue was full",
		},
	)

	cacheHitsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "panelglot_cache_hits_total",
			Help: "Cumulative result cache hits",
		},
	)

	cacheMissesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "panelglot_cache_misses_total",
			Help: "Cumulative result cache misses",
		},
	)

	cacheCoalescedTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "panelglot_cache_coalesced_total",
			Help: "Requests that attached to an in-flight computation",
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "panelglot_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "panelglot_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panelglot_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

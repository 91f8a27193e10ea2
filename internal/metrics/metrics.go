package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_analysis_runs_total",
			Help: "Total number of analysis runs by tier and final status",
		},
		[]string{"tier", "status"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storelens_analysis_duration_seconds",
			Help:    "Duration of a full analysis run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"tier"},
	)

	AnalysesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storelens_analyses_active",
			Help: "Number of analysis runs in progress",
		},
	)

	SectionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_section_results_total",
			Help: "Section results by kind and provenance",
		},
		[]string{"section", "provenance"},
	)

	RemoteCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_remote_calls_total",
			Help: "Remote completion calls by purpose and result (ok or error kind)",
		},
		[]string{"purpose", "result"},
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storelens_remote_call_duration_seconds",
			Help:    "Duration of remote completion calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"purpose"},
	)

	PanelOpinions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_panel_opinions_total",
			Help: "Expert opinions by persona and provenance",
		},
		[]string{"persona", "provenance"},
	)

	MediaAssets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_media_assets_total",
			Help: "Media assets processed by kind and result (extracted, cached, failed)",
		},
		[]string{"kind", "result"},
	)

	FeatureCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_feature_cache_lookups_total",
			Help: "Feature cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_notifications_total",
			Help: "Notifications sent by event and result",
		},
		[]string{"event", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storelens_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storelens_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storelens_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/storelens/internal/application/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/ai"
	"github.com/bryanwahyu/storelens/internal/domain/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/store"
	"github.com/bryanwahyu/storelens/internal/middleware"
	"github.com/bryanwahyu/storelens/internal/validation"
)

// AnalysisService is what the HTTP layer needs from the analysis use-cases.
type AnalysisService interface {
	Analyze(ctx context.Context, cmd appanalysis.AnalyzeCommand) (appanalysis.AnalyzeResult, error)
	Prepare(cmd appanalysis.AnalyzeCommand) (string, appanalysis.AnalyzeCommand, error)
	AnalyzeUntilDone(runID string, cmd appanalysis.AnalyzeCommand) (appanalysis.AnalyzeResult, error)
	Get(ctx context.Context, tenant string, id analysis.ReportID) (*analysis.AnalysisReport, error)
	Latest(ctx context.Context, tenant, storeID string) (*analysis.AnalysisReport, error)
	History(ctx context.Context, tenant, storeID string, page, pageSize int) (analysis.Page, error)
}

// MediaStore receives uploaded media.
type MediaStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type Deps struct {
	Analysis       AnalysisService
	Media          MediaStore // optional; uploads return 503 without it
	Schema         *validation.Validator
	Log            *zap.Logger
	Health         map[string]middleware.HealthChecker
	Ready          map[string]middleware.HealthChecker
	APIKeys        map[string]string
	Limiter        *middleware.RateLimiter // optional
	AllowedOrigins []string
	MaxUploadBytes int64
}

type Router struct {
	svc       AnalysisService
	media     MediaStore
	schema    *validation.Validator
	log       *zap.Logger
	maxUpload int64
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{
		svc:       d.Analysis,
		media:     d.Media,
		schema:    d.Schema,
		log:       log.With(zap.String("component", "router")),
		maxUpload: d.MaxUploadBytes,
	}
	if r.maxUpload <= 0 {
		r.maxUpload = 200 << 20
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Metrics)
	mux.Use(middleware.Logging(log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(d.APIKeys))
	if d.Limiter != nil {
		mux.Use(middleware.RateLimit(d.Limiter))
	}

	mux.Get("/health", middleware.HealthHandler(d.Health))
	mux.Get("/ready", middleware.ReadinessHandler(d.Ready))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireTenantMatch)
		rt.Post("/analyses", r.wrap(r.handleAnalyze))
		rt.Get("/analyses/{reportID}", r.wrap(r.handleGet))
		rt.Get("/stores/{storeID}/analyses", r.wrap(r.handleHistory))
		rt.Get("/stores/{storeID}/analyses/latest", r.wrap(r.handleLatest))
		rt.Post("/media", r.wrap(r.handleUpload))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// httpError carries a status for request-level problems found by handlers.
type httpError struct {
	code int
	msg  string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(msg string) error { return &httpError{code: http.StatusBadRequest, msg: msg} }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var herr *httpError
		var verr *store.ValidationError
		var serr *validation.SchemaError
		switch {
		case errors.As(err, &herr):
			writeJSON(w, herr.code, map[string]string{"error": herr.msg})
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid store profile", "fields": verr.Fields})
		case errors.As(err, &serr):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request", "details": serr.Errors})
		case errors.Is(err, analysis.ErrReportNotFound), errors.Is(err, sql.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		case errors.Is(err, ai.ErrQuotaExceeded):
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "ai quota exceeded"})
		case errors.Is(err, context.Canceled):
			// client went away; nobody reads the response
			r.log.Info("request canceled", zap.String("path", req.URL.Path))
		default:
			r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

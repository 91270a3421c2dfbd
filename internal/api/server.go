// Package api exposes the quote service, the location resolver and the
// rating catalog over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/rating-cli/internal/metrics"
	"github.com/sells-group/rating-cli/internal/quote"
	"github.com/sells-group/rating-cli/internal/rating"
	"github.com/sells-group/rating-cli/internal/schema"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	CORSOrigins    []string
	RateLimitRPS   float64 // 0 disables limiting
	RateLimitBurst int
	Metrics        *metrics.Metrics
	// Gatherer backs GET /metrics. The route is not mounted when nil.
	Gatherer prometheus.Gatherer
}

// Server holds the handler dependencies.
type Server struct {
	svc       *quote.Service
	validator *schema.Validator
	catalog   rating.Catalog
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	limiter   *rate.Limiter
	origins   []string
}

// New creates a Server.
func New(svc *quote.Service, validator *schema.Validator, opts Options) *Server {
	s := &Server{
		svc:       svc,
		validator: validator,
		catalog:   rating.NewCatalog(),
		metrics:   opts.Metrics,
		gatherer:  opts.Gatherer,
		origins:   opts.CORSOrigins,
	}
	if opts.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), max(opts.RateLimitBurst, 1))
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(s.instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":         "ok",
			"region_version": s.svc.Resolver().Table().Version(),
		})
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Get("/catalog", s.handleCatalog)
		r.Get("/regions", s.handleRegions)
		r.Get("/regions/{region}", s.handleRegion)

		r.Get("/location/resolve", s.handleResolve)
		r.Post("/location/validate", s.handleValidate)
		r.Post("/location/entry", s.handleEntry)

		r.Post("/profile/apply", s.handleApply)
		r.Post("/quote", s.handleQuote)
	})

	return r
}

// instrument records request counts and latency by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(route, r.Method, status, start)

		zap.L().Debug("api: request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.metrics.IncRateLimited()
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

type errorBody struct {
	Error  string         `json:"error"`
	Issues []schema.Issue `json:"issues,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

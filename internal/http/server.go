package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"expensetracker/internal/cache"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
)

// Server serves the expense tracker JSON API.
type Server struct {
	http.Server
	service     *services.ExpenseService
	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	cacheMgr    *cache.Manager
	headers     security.HeadersConfig

	trustedProxies []string

	metrics      appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	created int64
	deleted int64
}

// Metrics is a snapshot of server counters.
type Metrics struct {
	Requests        trace.Metrics
	RateLimit       ratelimit.Metrics
	Security        security.DetectionMetrics
	ExpensesCreated int64
	ExpensesDeleted int64
	ExpensesStored  int
	ViewCache       cache.Stats
}

type ServerOption func(*Server)

func WithLogger(l *applog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithRateLimiter limits mutating requests per client. The server stops
// the limiter on Shutdown.
func WithRateLimiter(rl *ratelimit.Limiter) ServerOption {
	return func(s *Server) { s.rateLimiter = rl }
}

// WithAllowedOrigin enables CORS for origin.
func WithAllowedOrigin(origin string) ServerOption {
	return func(s *Server) { s.headers.AllowedOrigin = origin }
}

// WithTrustedProxies lets requests from the given networks set the client
// IP through X-Forwarded-For or X-Real-IP. Loopback is always trusted.
func WithTrustedProxies(cidrs ...string) ServerOption {
	return func(s *Server) { s.trustedProxies = append(s.trustedProxies, cidrs...) }
}

// WithCacheManager stops m on Shutdown.
func WithCacheManager(m *cache.Manager) ServerOption {
	return func(s *Server) { s.cacheMgr = m }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.ExpenseService, opts ...ServerOption) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		service:  svc,
		logger:   applog.Discard(),
		detector: security.NewDetector(),
		headers:  security.DefaultHeadersConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.service == nil {
		s.service = services.NewExpenseService(nil)
	}
	s.logger = s.logger.WithComponent(applog.ComponentHTTP)
	for _, cidr := range s.trustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, applog.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /categories", s.handleCategories)

	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/all", s.handleListAllExpenses)
	mux.HandleFunc("GET /expenses/total", s.handleTotal)
	mux.HandleFunc("GET /expenses/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /expenses/export.csv", s.handleExport)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /budgets/{category}", s.handleSetBudget)

	var handler http.Handler = mux
	if s.rateLimiter != nil {
		handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit,
			http.MethodPost, http.MethodPut, http.MethodDelete)(handler)
	}
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(s.headers).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	s.Handler = handler

	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeJSON(w, r, http.StatusTooManyRequests, newErrorDTO(r, "rate limit exceeded, try again later", ""))
}

// Metrics returns current counters.
func (s *Server) Metrics() Metrics {
	m := Metrics{
		Requests:        s.tracer.GetMetrics(),
		Security:        s.detector.GetMetrics(),
		ExpensesCreated: atomic.LoadInt64(&s.metrics.created),
		ExpensesDeleted: atomic.LoadInt64(&s.metrics.deleted),
		ExpensesStored:  s.service.Count(),
		ViewCache:       s.service.ViewCacheStats(),
	}
	if s.rateLimiter != nil {
		m.RateLimit = s.rateLimiter.GetMetrics()
	}
	return m
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		if s.cacheMgr != nil {
			s.cacheMgr.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)

		m := s.Metrics()
		s.logger.Info("HTTP server stopped",
			applog.FieldOperation, applog.OpShutdown,
			"requests", m.Requests.TotalRequests,
			"expenses_created", m.ExpensesCreated,
			"expenses_deleted", m.ExpensesDeleted,
			"expenses_stored", m.ExpensesStored,
			"view_cache_hits", m.ViewCache.Hits,
			"view_cache_misses", m.ViewCache.Misses)
	})

	return shutdownErr
}

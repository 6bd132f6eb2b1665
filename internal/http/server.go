package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"networth/internal/cache"
	"networth/internal/categories"
	"networth/internal/middleware/ratelimit"
	"networth/internal/middleware/security"
	"networth/internal/middleware/trace"
	"networth/internal/services"
	"networth/internal/viewstate"
)

// Deps are the collaborators the API needs.
type Deps struct {
	Entries  *services.EntryService
	Goals    *services.GoalService
	Reports  *services.ReportService
	Registry *categories.Registry
	// Store is probed by /readyz when it implements Ping(ctx) error.
	Store    any
	Currency string
	// Views defaults to a fresh store.
	Views *viewstate.Store
}

// Server wraps http.Server with the API routes and middleware state.
type Server struct {
	http.Server

	deps         Deps
	views        *viewstate.Store
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	started      time.Time
	now          func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Currency == "" {
		deps.Currency = "EUR"
	}
	if deps.Registry == nil && deps.Entries != nil {
		deps.Registry = deps.Entries.Registry()
	}
	views := deps.Views
	if views == nil {
		views = viewstate.New(0, 0)
	}

	s := &Server{
		deps:         deps,
		views:        views,
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:     security.NewDetector(),
		started:      time.Now(),
		now:          time.Now,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.cacheManager.Register(views.Cache())
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(handler)
	handler = s.detector.Middleware(func(w http.ResponseWriter, r *http.Request) {
		BadRequestError("bad request").Write(w)
	})(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("GET /api/entries/{id}", s.handleGetEntry)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("GET /api/entries/{id}/history", s.handleEntryHistory)
	mux.HandleFunc("GET /api/history", s.handleAllHistory)

	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/export", s.handleExport)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/view/{id}", s.handleGetView)
	mux.HandleFunc("PUT /api/view/{id}", s.handleSetView)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		slog.Info("HTTP server stopped",
			"uptime", time.Since(s.started).String(),
			"requests", s.tracer.GetMetrics().TotalRequests)
	})
	return shutdownErr
}

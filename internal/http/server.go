// Package http exposes the ledger session as a small JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"stipendi/internal/cache"
	"stipendi/internal/ledger"
	"stipendi/internal/log"
	"stipendi/internal/persistence"
	"stipendi/internal/view"
)

// Options tunes the server. Zero values pick defaults.
type Options struct {
	Credentials *persistence.Credentials
	// Ready reports whether dependencies (local store, remote) are usable.
	Ready     func(ctx context.Context) error
	Logger    *log.Logger
	Now       func() time.Time
	RateLimit int
	CacheSize int
	CacheTTL  time.Duration
}

type Server struct {
	http.Server
	session     *ledger.Session
	creds       *persistence.Credentials
	ready       func(ctx context.Context) error
	logger      *log.Logger
	now         func() time.Time
	rateLimiter *rateLimiter

	dashboards  *cache.LRU[view.Dashboard]
	comparisons *cache.LRU[view.Comparison]
	janitor     *cache.Janitor

	shutdownOnce sync.Once
}

// NewServer wires routes over session and starts the background cache and
// rate limiter sweepers. Call Shutdown to stop them.
func NewServer(addr string, session *ledger.Session, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		session:     session,
		creds:       opts.Credentials,
		ready:       opts.Ready,
		logger:      logger,
		now:         opts.Now,
		rateLimiter: newRateLimiter(opts.RateLimit, time.Minute),
		dashboards:  cache.NewLRU[view.Dashboard](opts.CacheSize, opts.CacheTTL),
		comparisons: cache.NewLRU[view.Comparison](opts.CacheSize, opts.CacheTTL),
	}

	cacheLog := opts.Logger.WithComponent(log.ComponentCache)
	s.janitor = cache.NewJanitor(func(removed int) {
		cacheLog.Debug("Cache cleanup completed", "entries_removed", removed)
	})
	s.janitor.Register(s.dashboards)
	s.janitor.Register(s.comparisons)
	s.janitor.Start(opts.CacheTTL)
	go s.rateLimiter.startCleanup(5 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("GET /api/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("GET /api/state", s.withSecurityHeaders(s.handleState))
	mux.HandleFunc("POST /api/salary", s.withSecurityHeaders(s.handleSaveSalary))
	mux.HandleFunc("POST /api/navigate", s.withSecurityHeaders(s.handleNavigate))
	mux.HandleFunc("POST /api/theme", s.withSecurityHeaders(s.handleTheme))
	mux.HandleFunc("GET /api/compare", s.withSecurityHeaders(s.handleCompare))
	mux.HandleFunc("GET /api/export", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("POST /api/import", s.withSecurityHeaders(s.handleImport))
	mux.HandleFunc("POST /api/refresh", s.withSecurityHeaders(s.handleRefresh))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           withRequestID(log.Middleware(logger, func(r *http.Request) string { return r.Header.Get(requestIDHeader) })(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the background sweepers and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withSecurityHeaders applies token capture, rate limiting of writes,
// security headers and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)

		if isSuspicious(r) {
			s.logger.WithComponent(log.ComponentSecurity).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			log.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
		}()

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded", log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "Troppe richieste, riprova tra poco").
				Header("Retry-After", "60").
				Write(rw)
			return
		}

		h := rw.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		if s.captureToken(rw, r) {
			return
		}
		next(rw, r)
	}
}

// captureToken stores a token passed as ?token= and redirects to the same
// URL without it, so the secret never stays in history or logs.
func (s *Server) captureToken(w http.ResponseWriter, r *http.Request) bool {
	if s.creds == nil || !r.URL.Query().Has(persistence.TokenParam) {
		return false
	}
	ctx := r.Context()
	scrubbed, captured, err := s.creds.Bootstrap(ctx, r.URL.RequestURI())
	if err != nil {
		s.logger.ErrorContext(ctx, "Token capture failed", log.FieldError, err)
		InternalServerError("Impossibile salvare il token").Write(w)
		return true
	}
	if captured {
		s.logger.WithComponent(log.ComponentSecurity).InfoContext(ctx, "Access token captured from launch URL")
	}
	http.Redirect(w, r, scrubbed, http.StatusSeeOther)
	return true
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

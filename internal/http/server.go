package http

import (
	"context"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	appweb "budget/web"
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	http.Server
	ledger   *ledger.Ledger
	renderer *HTMLRenderer
	logger   *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	checks   map[string]ReadinessCheck
	started  time.Time

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger.WithComponent(log.ComponentHTTP) }
}

// WithRateLimit caps ledger mutations per client and minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: perMinute})
	}
}

// WithTrustedProxies lets the listed CIDRs supply X-Forwarded-For.
// Entries that do not parse are logged and skipped.
func WithTrustedProxies(cidrs []string) Option {
	return func(s *Server) {
		for _, cidr := range cidrs {
			if err := s.detector.AddTrustedProxy(cidr); err != nil {
				s.logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
			}
		}
	}
}

// WithReadinessCheck adds a named check to /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

// NewServer wires the routes around l. The renderer must be the one l was
// created with and already mounted.
func NewServer(addr string, l *ledger.Ledger, r *HTMLRenderer, opts ...Option) *Server {
	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:   l,
		renderer: r,
		logger:   log.Default(log.ComponentHTTP),
		detector: security.NewDetector(),
		checks:   map[string]ReadinessCheck{},
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/ledger", s.handleLedgerPartial)
	mux.HandleFunc("POST /entries", s.handleAddEntry)
	mux.HandleFunc("POST /entries/{ref}", s.handleUpdateEntry)
	mux.HandleFunc("POST /entries/{ref}/delete", s.handleDeleteEntry)
	mux.HandleFunc("GET /export.csv", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP)(h)
	h = s.detector.Middleware(h)
	h = log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(s.logger)(h)
	s.Handler = h

	return s
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"superdash/internal/amqp"
	"superdash/internal/cache"
	"superdash/internal/dashboard"
	"superdash/internal/export"
	"superdash/internal/log"
	"superdash/internal/middleware/ratelimit"
	"superdash/internal/middleware/security"
	"superdash/internal/middleware/trace"
	"superdash/internal/ui"
	appweb "superdash/web"
)

// Options configures a Server. Zero values fall back to sensible defaults.
type Options struct {
	Addr          string
	State         *dashboard.State
	Format        export.Format
	Logger        *log.Logger
	Publisher     amqp.Publisher
	CacheSize     int
	CacheTTL      time.Duration
	DownloadLimit ratelimit.Config
	CleanupEvery  time.Duration
}

// Server serves the dashboard.
type Server struct {
	http.Server

	state      *dashboard.State
	registry   *dashboard.Registry
	templates  *template.Template
	logger     *log.Logger
	structured *log.StructuredLogger
	publisher  amqp.Publisher

	// Static chart PNGs and encoded downloads. The table is immutable,
	// so entries never go stale; the TTL only bounds memory.
	chartCache   *cache.LRUCache[[]byte]
	payloadCache *cache.LRUCache[*export.Payload]
	caches       *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	trace    *trace.Middleware

	metrics appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	updates       atomic.Int64
	downloads     atomic.Int64
	chartRenders  atomic.Int64
	publishErrors atomic.Int64
	started       time.Time
}

// NewServer wires routes, templates and middleware around state.
func NewServer(opts Options) (*Server, error) {
	if opts.State == nil {
		return nil, fmt.Errorf("server: nil dashboard state")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Format == "" {
		opts.Format = export.FormatCSV
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.DownloadLimit.Requests <= 0 {
		opts.DownloadLimit = ratelimit.DefaultConfig()
	}
	if opts.CleanupEvery <= 0 {
		opts.CleanupEvery = 10 * time.Minute
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		Server:       http.Server{Addr: opts.Addr, ReadHeaderTimeout: 10 * time.Second},
		state:        opts.State,
		logger:       logger,
		structured:   log.NewStructuredLogger(logger),
		publisher:    opts.Publisher,
		chartCache:   cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		payloadCache: cache.NewLRUCache[*export.Payload](len(export.Formats), opts.CacheTTL),
		caches:       cache.NewManager(opts.Logger),
		detector:     security.NewDetector(),
	}
	s.metrics.started = time.Now()
	s.trace = trace.NewMiddleware(opts.Logger, s.detector.ClientIP)

	registry, err := opts.State.Callbacks(opts.Format, s.payloadCache)
	if err != nil {
		return nil, fmt.Errorf("register callbacks: %w", err)
	}
	s.registry = registry

	hx := hxAttributes(registry)
	t, err := template.New("").Funcs(template.FuncMap{
		"css": func(n ui.Node) template.CSS { return template.CSS(n.CSS()) },
		"hx":  func(n ui.Node) template.HTMLAttr { return hx[n.ID] },
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	s.limiter = ratelimit.NewLimiter(opts.DownloadLimit)
	s.caches.Register("charts", s.chartCache)
	s.caches.Register("downloads", s.payloadCache)
	s.caches.StartCleanup(opts.CleanupEvery)

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.stopBackground()
		return nil, err
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = log.Middleware(opts.Logger)(s.trace.Middleware(headers.Middleware(s.inspect(mux))))
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.CacheControl(3600)(http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /ui/update", s.handleUpdatePartial)
	mux.HandleFunc("GET /api/update", s.handleUpdateJSON)
	mux.HandleFunc("GET /api/charts/{id}", s.handleChartJSON)
	mux.HandleFunc("GET /charts/{file}", s.handleChartPNG)

	download := s.limiter.Middleware(s.detector.ClientIP, s.onRateLimited)
	mux.Handle("POST /download", download(http.HandlerFunc(s.handleDownload)))
	return nil
}

// inspect logs probes before routing; they still get the normal response.
func (s *Server) inspect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldComponent, log.ComponentSecurity,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Download rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.detector.ClientIP(r))
	ErrorResponse(http.StatusTooManyRequests, "Too many downloads, please try again later").Write(w)
}

// hxAttributes turns the filter callback's bindings into HTMX attributes:
// inputs re-request the partial on change, the output loads it once.
func hxAttributes(reg *dashboard.Registry) map[string]template.HTMLAttr {
	attrs := make(map[string]template.HTMLAttr)
	cb, ok := reg.Lookup(dashboard.OutputDistribution.String())
	if !ok {
		return attrs
	}
	ids := make([]string, len(cb.Inputs))
	for i, in := range cb.Inputs {
		ids[i] = "#" + in.ComponentID
	}
	include := strings.Join(ids, ",")
	target := "#" + cb.Output.ComponentID

	if !cb.PreventInitialCall {
		attrs[cb.Output.ComponentID] = template.HTMLAttr(fmt.Sprintf(
			`hx-get="/ui/update?initial=1" hx-trigger="load" hx-include="%s"`, include))
	}
	for _, in := range cb.Inputs {
		attrs[in.ComponentID] = template.HTMLAttr(fmt.Sprintf(
			`hx-get="/ui/update" hx-trigger="change" hx-target="%s" hx-include="%s"`, target, include))
	}
	return attrs
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) stopBackground() {
	s.caches.Stop()
	s.limiter.Stop()
}

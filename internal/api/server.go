// Package api serves the organization graph over HTTP: the default graph,
// custom graphs and what-if moves.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/logger"
	"github.com/mmbarrys/navigara/internal/metrics"
	"github.com/mmbarrys/navigara/internal/provider"
)

const (
	// DefaultMaxBodyBytes limits request bodies to 1 MiB.
	DefaultMaxBodyBytes = 1 << 20
	DefaultCacheSize    = 128

	readHeaderTimeout = 10 * time.Second
)

// Options configures the service.
type Options struct {
	Addr           string
	AllowedOrigins []string
	MaxBodyBytes   int64
	CacheSize      int

	Provider provider.GraphProvider
	Metrics  *metrics.Registry
	Logger   *zap.Logger
}

// Server holds the routes and their shared dependencies. Handlers keep no
// per-session state.
type Server struct {
	provider provider.GraphProvider
	metrics  *metrics.Registry
	logger   *zap.Logger
	cache    *snapshotCache

	addr      string
	maxBody   int64
	origins   map[string]struct{}
	anyOrigin bool

	handler http.Handler
}

func New(opts Options) (*Server, error) {
	if opts.Provider == nil {
		return nil, errors.New("graph provider is required")
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	cache, err := newSnapshotCache(opts.CacheSize, opts.Metrics)
	if err != nil {
		return nil, err
	}

	s := &Server{
		provider: opts.Provider,
		metrics:  opts.Metrics,
		logger:   logger.WithFields(opts.Logger, zap.String("component", "api")),
		cache:    cache,
		addr:     opts.Addr,
		maxBody:  opts.MaxBodyBytes,
		origins:  make(map[string]struct{}, len(opts.AllowedOrigins)),
	}
	for _, origin := range opts.AllowedOrigins {
		if origin == "*" {
			s.anyOrigin = true
			continue
		}
		s.origins[origin] = struct{}{}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /api/nakhoda/get-graph", s.handleGetGraph)
	mux.HandleFunc("POST /api/nakhoda/load-custom-graph", s.handleLoadCustomGraph)
	mux.HandleFunc("POST /api/nakhoda/simulate-move", s.handleSimulateMove)

	s.handler = s.accessLog(s.cors(bodyLimitMiddleware(s.maxBody, mux)))

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

// HTTPServer returns an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// errorBody is {"error": message} plus the offending field when known.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorBody{Error: message})
}

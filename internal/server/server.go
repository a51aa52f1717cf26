// Package server exposes the photo catalog over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bstardust/photo-atlas/internal/catalog"
	"go.uber.org/zap"
)

const greeting = "Hello, world!\n"

type route int

const (
	routeUnknown route = iota
	routeHello
	routePhotos
)

func lookupRoute(path string) route {
	switch path {
	case "/hello":
		return routeHello
	case "/photos":
		return routePhotos
	default:
		return routeUnknown
	}
}

// CatalogFunc builds a fresh catalog for one request
type CatalogFunc func(ctx context.Context) (catalog.Catalog, error)

// Option configures a Server
type Option func(*Server)

// WithCORS adds a permissive Access-Control-Allow-Origin header to every
// response and answers preflight requests.
func WithCORS() Option {
	return func(s *Server) {
		s.cors = true
	}
}

// WithRequestTimeout bounds the time spent building a catalog
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithLogger sets the logger used by the middleware
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// Server answers the catalog routes
type Server struct {
	build   CatalogFunc
	cors    bool
	timeout time.Duration
	log     *zap.Logger
}

// New creates a server that calls build on every catalog request
func New(build CatalogFunc, opts ...Option) *Server {
	s := &Server{
		build: build,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the server wrapped in its middleware chain
func (s *Server) Handler() http.Handler {
	return RequestIDMiddleware(
		RecoveryMiddleware(s.log,
			RequestLoggerMiddleware(s.log, s.ServeHTTP)))
}

// ServeHTTP dispatches a request to its route
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.cors {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
	}

	rt := lookupRoute(r.URL.Path)
	if rt == routeUnknown {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
	case http.MethodOptions:
		if s.cors {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		fallthrough
	default:
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch rt {
	case routeHello:
		s.handleHello(w)
	case routePhotos:
		s.handlePhotos(w, r)
	}
}

func (s *Server) handleHello(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(greeting))
}

func (s *Server) handlePhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	c, err := s.build(ctx)
	if err != nil {
		s.log.Error("failed to build catalog",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if c == nil {
		c = catalog.Catalog{}
	}

	body, err := json.Marshal(c)
	if err != nil {
		s.log.Error("failed to encode catalog", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// Package server exposes a blend service over HTTP: the JSON API used by the
// blend builder, the raw blend files, the resource catalog, a websocket feed
// of store changes and the static web app.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/klauspost/compress/gzhttp"

	blendevents "github.com/anttttti/DuneBlend/pkg/adapters/lifecycle"
	"github.com/anttttti/DuneBlend/pkg/catalog"
	"github.com/anttttti/DuneBlend/pkg/core"
)

// ResourcesFile is the default catalog asset fetched through the service.
const ResourcesFile = "resources.json"

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 4 << 20

// Config holds the HTTP settings.
type Config struct {
	Addr       string
	StaticDir  string // served at "/" when set
	CORSOrigin string // Access-Control-Allow-Origin, "*" when empty
	Resources  string // catalog asset name, ResourcesFile when empty
	Logger     *slog.Logger
}

// Server serves a core.Service.
type Server struct {
	svc    *core.Service
	config Config
	logger *slog.Logger
	hub    *hub

	catalogMu sync.Mutex
	catalog   *catalog.Catalog
}

// New creates a server for svc.
func New(svc *core.Service, config Config) *Server {
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}
	if config.Resources == "" {
		config.Resources = ResourcesFile
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		svc:    svc,
		config: config,
		logger: logger,
		hub:    newHub(logger),
	}
}

// Handler returns the complete HTTP handler. Everything but the websocket
// endpoint is gzip-compressed when the client accepts it.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/server-features", s.handleFeatures)
	api.HandleFunc("GET /api/blends", s.handleList)
	api.HandleFunc("GET /api/blend/load/{file}", s.handleLoad)
	api.HandleFunc("GET /api/blend/download/{file}", s.handleDownload)
	api.HandleFunc("POST /api/blend/upload", s.handleUpload)
	api.HandleFunc("POST /api/blend/save", s.handleSave)
	api.HandleFunc("POST /api/blend/delete", s.handleDelete)
	api.HandleFunc("GET /api/resources", s.handleResources)
	api.HandleFunc("GET /api/resources/{type}", s.handleResourcesByType)
	api.HandleFunc("GET /blends/index.json", s.handleIndex)
	api.HandleFunc("GET /blends/{file}", s.handleRaw)
	if s.config.StaticDir != "" {
		api.Handle("GET /", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /api/events", s.hub.serveWS)
	root.Handle("/", gzhttp.GzipHandler(api))

	return s.logRequests(s.cors(root))
}

// Run serves until ctx is cancelled, then shuts down gracefully. Store
// changes are pushed to websocket clients when the store can be watched.
func (s *Server) Run(ctx context.Context) error {
	if events, err := s.svc.Watch(ctx); err == nil {
		src := blendevents.NewSource(events)
		if err := src.Start(ctx); err != nil {
			return err
		}
		lifecycle.Go(ctx, func(ctx context.Context) error {
			s.hub.run(ctx, src.Events())
			return nil
		})
	} else {
		s.logger.Info("live updates disabled", "reason", err)
	}

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", s.config.Addr, "static", s.config.StaticDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadCatalog fetches and parses resources.json once it is available.
func (s *Server) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	if s.catalog != nil {
		return s.catalog, nil
	}
	data, err := s.svc.Fetch(ctx, s.config.Resources)
	if err != nil {
		return nil, err
	}
	c, err := catalog.Parse(data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("resource catalog loaded", "types", len(c.Types()), "resources", c.Len())
	s.catalog = c
	return c, nil
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.config.CORSOrigin)
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required by the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

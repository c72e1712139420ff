// Package webui serves the parsed heap snapshots over HTTP: log upload,
// layout and metric queries, the per-cycle event stream and upload history.
package webui

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/g1heapviz/internal/observability"
	"github.com/g1heapviz/internal/parser/gclog"
	"github.com/g1heapviz/internal/repository"
	"github.com/g1heapviz/internal/storage"
	"github.com/g1heapviz/internal/store"
	"github.com/g1heapviz/internal/stream"
	"github.com/g1heapviz/pkg/utils"
)

// Options configures a Server. Storage and Uploads are optional; the
// corresponding features are disabled when they are nil.
type Options struct {
	Store   store.Store
	Parser  *gclog.Parser
	Storage storage.Storage
	Uploads repository.UploadRepository
	Metrics *observability.Metrics
	Logger  utils.Logger
	Clock   utils.Clock

	Stream         stream.Config
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Server represents the web UI server
type Server struct {
	store     store.Store
	parser    *gclog.Parser
	storage   storage.Storage
	uploads   repository.UploadRepository
	metrics   *observability.Metrics
	logger    utils.Logger
	clock     utils.Clock
	projector *stream.Projector

	maxUploadBytes int64
	readTimeout    time.Duration
	writeTimeout   time.Duration

	router chi.Router
	server *http.Server
}

// NewServer creates a new web UI server
func NewServer(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = &utils.NullLogger{}
	}
	if opts.Parser == nil {
		opts.Parser = gclog.NewParser()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics()
	}
	if opts.Clock == nil {
		opts.Clock = utils.NewRealClock()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 256 << 20
	}

	streamCfg := opts.Stream
	if streamCfg.Clock == nil {
		streamCfg.Clock = opts.Clock
	}
	if streamCfg.Logger == nil {
		streamCfg.Logger = opts.Logger
	}
	streamCfg.OnTick = opts.Metrics.StreamTicks.Inc

	s := &Server{
		store:          opts.Store,
		parser:         opts.Parser,
		storage:        opts.Storage,
		uploads:        opts.Uploads,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		clock:          opts.Clock,
		projector:      stream.NewProjector(opts.Store, streamCfg),
		maxUploadBytes: opts.MaxUploadBytes,
		readTimeout:    opts.ReadTimeout,
		writeTimeout:   opts.WriteTimeout,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/multipart", s.handleUpload)

	r.Route("/graph", func(r chi.Router) {
		r.Get("/getn", s.handleGetN)
		r.Get("/gridsize", s.handleGridSize)
		r.Get("/size", s.handleSize)
		r.Get("/metrics", s.handleSnapshotMetrics)
	})

	r.Get("/sse/events", s.handleEvents)

	r.Route("/api/uploads", func(r chi.Router) {
		r.Get("/", s.handleListUploads)
		r.Get("/{id}", s.handleGetUpload)
		r.Get("/{id}/raw", s.handleRawUpload)
		r.Post("/{id}/reload", s.handleReloadUpload)
	})

	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	s.logger.Info("Starting web server at http://localhost%s", addr)
	s.logger.Info("Holding %d heap snapshots", store.Len(s.store))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Load parses a log and replaces the current snapshots with its result.
func (s *Server) Load(ctx context.Context, r io.Reader) (int, error) {
	start := s.clock.Now()
	snapshots, stats, err := s.parser.ParseWithStats(ctx, r)
	if err != nil {
		return 0, err
	}
	s.metrics.ObserveParse(stats.Snapshots, stats.SkippedLines, s.clock.Since(start).Seconds())

	s.store.Replace(snapshots)
	s.metrics.CurrentSnapshots.Set(float64(len(snapshots)))
	return len(snapshots), nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := s.clock.Now()

		next.ServeHTTP(ww, r)

		s.logger.WithFields(map[string]interface{}{
			"request_id": middleware.GetReqID(r.Context()),
			"status":     ww.Status(),
		}).Debug("%s %s (%d bytes, %v)", r.Method, r.URL.Path, ww.BytesWritten(), s.clock.Since(start))
	})
}

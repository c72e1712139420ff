package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/g1heapviz/internal/observability"
	"github.com/g1heapviz/internal/parser"
	"github.com/g1heapviz/internal/parser/gclog"
	"github.com/g1heapviz/internal/repository"
	"github.com/g1heapviz/internal/storage"
	"github.com/g1heapviz/internal/store"
	"github.com/g1heapviz/internal/stream"
	"github.com/g1heapviz/internal/webui"
	"github.com/g1heapviz/pkg/utils"
)

var (
	// Serve command flags
	port int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [gc-log]",
	Short: "Serve heap layouts and fragmentation metrics over HTTP",
	Long: `Start an HTTP server holding the snapshots of the last uploaded log.

Endpoints:
  POST /multipart          upload a log (form field "file")
  GET  /graph/getn?n=      layout of snapshot n as [row, column, code] triples
  GET  /graph/metrics?n=   ext, int and free percentages of snapshot n
  GET  /graph/gridsize     grid side of the first snapshot
  GET  /graph/size         number of snapshots
  GET  /sse/events         one frame per GC cycle as server-sent events
  GET  /api/uploads        upload history (database.enabled)
  GET  /metrics            Prometheus metrics

A log given as argument is loaded before the server starts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port for web server (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}

	opts := webui.Options{
		Store:   store.NewMemoryStore(),
		Parser:  gclog.NewParser(parser.WithStrictMode(cfg.Parser.Strict), parser.WithLogger(log)),
		Metrics: observability.NewMetrics(),
		Logger:  log,
		Stream: stream.Config{
			Interval: cfg.Stream.Interval(),
			Buffer:   cfg.Stream.Buffer,
		},
		MaxUploadBytes: cfg.MaxUploadBytes(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	}

	if cfg.Storage.Enabled {
		st, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		opts.Storage = st
		log.Info("Archiving uploads to %s storage", cfg.Storage.Type)
	}

	if cfg.Database.Enabled {
		repos, err := repository.Open(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer repos.Close()
		opts.Uploads = repos.Upload
		log.Info("Recording upload history in %s database", cfg.Database.Type)
	}

	server := webui.NewServer(opts)
	if len(args) == 1 {
		preload(cmd.Context(), server, args[0], log)
	} else {
		log.Info("No GC log specified. Upload one with POST /multipart.")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// preload parses path into the server. A missing or unreadable file is
// logged and the server starts empty.
func preload(ctx context.Context, server *webui.Server, path string, log utils.Logger) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Error("File not found: %s", path)
		} else {
			log.Error("Failed to open %s: %v", path, err)
		}
		return
	}
	defer f.Close()

	log.Info("Loading GC log: %s", path)
	n, err := server.Load(ctx, f)
	if err != nil {
		log.Error("Failed to parse %s: %v", path, err)
		return
	}
	log.Info("Loaded %d heap snapshots", n)
}

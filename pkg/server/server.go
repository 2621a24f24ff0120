package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/kacperjurak/thinfilm/internal/processing"
	"github.com/kacperjurak/thinfilm/pkg/config"
	"github.com/kacperjurak/thinfilm/pkg/handlers"
	"github.com/kacperjurak/thinfilm/pkg/profiling"
	"github.com/kacperjurak/thinfilm/pkg/webhook"
	"github.com/kacperjurak/thinfilm/pkg/worker"
)

// Server represents the HTTP server with all dependencies
type Server struct {
	config       config.Config
	serverConfig config.ServerConfig
	processor    *processing.Processor
	workerPool   *worker.Pool
	batch        *handlers.BatchHandler
	session      *handlers.SessionHandler
	httpServer   *http.Server
	profiler     *profiling.Profiler
	middleware   *profiling.Middleware
}

// Options holds configuration for creating a new server. Config seeds the
// interactive session.
type Options struct {
	Config       *config.Config
	ServerConfig *config.ServerConfig
}

// New creates a new server instance
func New(opts Options) *Server {
	cfg := config.DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	serverCfg := config.DefaultServerConfig()
	if opts.ServerConfig != nil {
		serverCfg = *opts.ServerConfig
	}

	processor := processing.NewProcessor(cfg.Quiet)
	webhookClient := webhook.NewClient(serverCfg.WebhookURL, cfg.Quiet)

	pool := worker.New(worker.Options{
		Workers:   serverCfg.WorkerCount,
		Processor: processor.Evaluate,
		Sender:    webhookClient,
	})

	s := &Server{
		config:       cfg,
		serverConfig: serverCfg,
		processor:    processor,
		workerPool:   pool,
		profiler:     profiling.New(serverCfg),
		middleware:   profiling.NewMiddleware(serverCfg.EnableProfiling, cfg.Quiet),
	}

	s.setupRoutes()
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) setupRoutes() {
	mux := http.NewServeMux()

	s.batch = handlers.NewBatchHandler(s.workerPool, s.serverConfig.TimingFile, s.config.Quiet)
	s.session = handlers.NewSessionHandler(processing.NewSession(s.processor, s.config))
	plot := handlers.NewPlotHandler(s.processor)

	mux.Handle("/evaluate", s.middleware.ProfiledHandler("evaluate", handlers.NewEvaluateHandler(s.processor, s.config.Quiet)))
	mux.Handle("/evaluate/batch", s.middleware.ProfiledHandler("evaluate-batch", s.batch))
	mux.Handle("/export/csv", s.middleware.ProfiledHandler("export-csv", handlers.NewExportHandler(s.processor, handlers.FormatCSV)))
	mux.Handle("/export/xlsx", s.middleware.ProfiledHandler("export-xlsx", handlers.NewExportHandler(s.processor, handlers.FormatXLSX)))
	mux.Handle("/plot/", s.middleware.ProfiledHandler("plot", plot))
	mux.Handle("/fit", s.middleware.ProfiledHandler("fit", handlers.NewFitHandler(s.processor, s.config.Quiet)))
	mux.Handle("/session", s.middleware.ProfiledHandler("session", s.session))
	mux.Handle("/session/", s.middleware.ProfiledHandler("session", s.session))
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/debug/gc", s.gcHandler)
	mux.HandleFunc("/debug/memory", s.memoryHandler)

	s.httpServer = &http.Server{
		Addr:         ":" + s.serverConfig.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // fits and large exports outlast the read timeout
		IdleTimeout:  60 * time.Second,
	}
}

// healthHandler provides a simple health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","workers":%d,"timestamp":"%s"}`,
		s.workerPool.Workers(), time.Now().Format(time.RFC3339))
}

// gcHandler triggers garbage collection and returns stats
func (s *Server) gcHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	stats := profiling.ForceGC()
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

// memoryHandler provides current memory statistics
func (s *Server) memoryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	profiling.LogGCStats()
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(profiling.ReadRuntimeInfo())
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	if err := s.profiler.Start(); err != nil {
		log.Printf("❌ Failed to start profiler: %v", err)
	}

	port := s.serverConfig.Port
	log.Println("🚀 Starting HTTP server on port", port)
	log.Println("📡 Endpoints available:")
	log.Printf("  - Evaluate: http://localhost:%s/evaluate", port)
	log.Printf("  - Batch:    http://localhost:%s/evaluate/batch", port)
	log.Printf("  - Export:   http://localhost:%s/export/{csv,xlsx}", port)
	log.Printf("  - Plot:     http://localhost:%s/plot/{spectral,angular,profile}", port)
	log.Printf("  - Fit:      http://localhost:%s/fit", port)
	log.Printf("  - Session:  http://localhost:%s/session[/undo|/redo]", port)
	log.Printf("  - Health:   http://localhost:%s/health", port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then drains batches and the worker pool
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("🛑 Shutting down server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		log.Printf("⚠️ HTTP shutdown error: %v", err)
	}
	if perr := s.profiler.Stop(); perr != nil {
		log.Printf("⚠️ Profiler shutdown error: %v", perr)
	}

	s.session.Close()
	s.workerPool.Shutdown()
	s.batch.Wait()

	log.Println("✅ Server shutdown complete")
	return err
}

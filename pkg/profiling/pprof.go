package profiling

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"github.com/kacperjurak/thinfilm/pkg/config"
)

// Profiler manages the pprof server on its own port
type Profiler struct {
	enabled bool
	port    string
	server  *http.Server
}

// New creates a new profiler instance
func New(cfg config.ServerConfig) *Profiler {
	return &Profiler{
		enabled: cfg.EnableProfiling,
		port:    cfg.ProfilingPort,
	}
}

// Handler returns the profiling routes: the pprof index and /debug/info.
func (p *Profiler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/info", infoHandler)
	return mux
}

// Start starts the profiling server in the background
func (p *Profiler) Start() error {
	if !p.enabled {
		log.Println("📊 Profiling disabled")
		return nil
	}

	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)

	p.server = &http.Server{
		Addr:              ":" + p.port,
		Handler:           p.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("📊 Starting profiling server on port %s", p.port)
	log.Printf("  - CPU Profile:    http://localhost:%s/debug/pprof/profile", p.port)
	log.Printf("  - Heap Profile:   http://localhost:%s/debug/pprof/heap", p.port)
	log.Printf("  - Goroutines:     http://localhost:%s/debug/pprof/goroutine", p.port)
	log.Printf("  - Runtime Info:   http://localhost:%s/debug/info", p.port)

	go func() {
		if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Profiling server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the profiling server
func (p *Profiler) Stop() error {
	if p.server == nil {
		return nil
	}

	log.Println("🛑 Shutting down profiling server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("profiling server shutdown error: %w", err)
	}

	log.Println("✅ Profiling server stopped")
	return nil
}

// RuntimeInfo is the body of /debug/info.
type RuntimeInfo struct {
	Timestamp  string     `json:"timestamp"`
	Goroutines int        `json:"goroutines"`
	GOMAXPROCS int        `json:"gomaxprocs"`
	NumCPU     int        `json:"num_cpu"`
	Version    string     `json:"version"`
	Memory     MemoryInfo `json:"memory"`
	GC         GCStats    `json:"gc"`
}

type MemoryInfo struct {
	AllocMB      float64 `json:"alloc_mb"`
	TotalAllocMB float64 `json:"total_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	HeapObjects  uint64  `json:"heap_objects"`
}

// ReadRuntimeInfo samples the runtime.
func ReadRuntimeInfo() RuntimeInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeInfo{
		Timestamp:  time.Now().Format(time.RFC3339),
		Goroutines: runtime.NumGoroutine(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		NumCPU:     runtime.NumCPU(),
		Version:    runtime.Version(),
		Memory: MemoryInfo{
			AllocMB:      bToMb(m.Alloc),
			TotalAllocMB: bToMb(m.TotalAlloc),
			SysMB:        bToMb(m.Sys),
			HeapObjects:  m.HeapObjects,
		},
		GC: gcStats(&m),
	}
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ReadRuntimeInfo())
}

func bToMb(b uint64) float64 {
	return float64(b) / 1024 / 1024
}

package profiling

import (
	"log"
	"runtime"
	"time"
)

// SweepProfiler measures the throughput of one evaluation
type SweepProfiler struct {
	startTime   time.Time
	startMemory uint64
	label       string
}

// NewSweepProfiler starts measuring
func NewSweepProfiler(label string) *SweepProfiler {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SweepProfiler{
		startTime:   time.Now(),
		startMemory: m.Alloc,
		label:       label,
	}
}

// Finish logs duration, samples per second and heap growth, and returns the duration.
func (sp *SweepProfiler) Finish(samples int) time.Duration {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	duration := time.Since(sp.startTime)
	rate := 0.0
	if duration > 0 {
		rate = float64(samples) / duration.Seconds()
	}
	log.Printf("🔍 %s: %d samples in %.3fms (%.0f samples/s), memory: %+d bytes",
		sp.label, samples, float64(duration.Nanoseconds())/1000000.0, rate, int64(m.Alloc)-int64(sp.startMemory))
	return duration
}

// GCStats provides garbage collection statistics
type GCStats struct {
	NumGC         uint32    `json:"num_gc"`
	PauseTotalMs  float64   `json:"pause_total_ms"`
	PauseRecentUs float64   `json:"pause_recent_us"`
	LastGC        time.Time `json:"last_gc"`
	GCCPUPercent  float64   `json:"cpu_percent"`
}

func gcStats(m *runtime.MemStats) GCStats {
	var recentPause time.Duration
	if m.NumGC > 0 {
		recentPause = time.Duration(m.PauseNs[(m.NumGC+255)%256])
	}
	return GCStats{
		NumGC:         m.NumGC,
		PauseTotalMs:  float64(m.PauseTotalNs) / 1e6,
		PauseRecentUs: float64(recentPause.Nanoseconds()) / 1e3,
		LastGC:        time.Unix(0, int64(m.LastGC)),
		GCCPUPercent:  m.GCCPUFraction * 100,
	}
}

// GetGCStats returns current garbage collection statistics
func GetGCStats() GCStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return gcStats(&m)
}

// LogGCStats logs garbage collection statistics
func LogGCStats() {
	stats := GetGCStats()
	log.Printf("🗑️  GC: Runs=%d, TotalPause=%.2fms, RecentPause=%.2fμs, CPU=%.2f%%, LastGC=%s",
		stats.NumGC, stats.PauseTotalMs, stats.PauseRecentUs, stats.GCCPUPercent, stats.LastGC.Format("15:04:05"))
}

// ForceGC triggers garbage collection and returns the statistics afterwards
func ForceGC() GCStats {
	before := GetGCStats()
	runtime.GC()
	after := GetGCStats()

	log.Printf("🗑️  Forced GC: %d→%d runs, pause: %.2fμs", before.NumGC, after.NumGC, after.PauseRecentUs)
	return after
}

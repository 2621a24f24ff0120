package profiling

import (
	"log"
	"net/http"
	"runtime"
	"strconv"
	"time"
)

// Middleware adds timing headers to handler responses when profiling is on
type Middleware struct {
	enableProfiling bool
	quiet           bool
}

// NewMiddleware creates a new profiling middleware
func NewMiddleware(enableProfiling, quiet bool) *Middleware {
	return &Middleware{
		enableProfiling: enableProfiling,
		quiet:           quiet,
	}
}

// ProfiledHandler wraps handler. Headers are only set before the handler
// writes its status, so the measurements are taken at that moment.
func (m *Middleware) ProfiledHandler(name string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enableProfiling {
			handler.ServeHTTP(w, r)
			return
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			name:           name,
			start:          time.Now(),
			goroutines:     runtime.NumGoroutine(),
		}
		w.Header().Set("X-Handler-Name", name)

		handler.ServeHTTP(wrapped, r)
		wrapped.stamp()

		if !m.quiet {
			log.Printf("⏱️  %s %s -> %d in %.3fms", r.Method, name, wrapped.statusCode,
				float64(time.Since(wrapped.start).Nanoseconds())/1000000.0)
		}
	})
}

// responseWriter captures the status code and stamps timing headers
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	name       string
	start      time.Time
	goroutines int
	stamped    bool
}

func (rw *responseWriter) stamp() {
	if rw.stamped {
		return
	}
	rw.stamped = true
	h := rw.Header()
	h.Set("X-Duration-Ms", strconv.FormatFloat(float64(time.Since(rw.start).Nanoseconds())/1000000.0, 'f', 3, 64))
	h.Set("X-Goroutine-Delta", strconv.Itoa(runtime.NumGoroutine()-rw.goroutines))
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.stamp()
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.stamp()
	return rw.ResponseWriter.Write(b)
}

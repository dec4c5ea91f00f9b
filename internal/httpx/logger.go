package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// statusAwareResponseWriter captures the status code written by the
// wrapped handler. A handler that never calls WriteHeader implies 200.
type statusAwareResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusAwareResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusAwareResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Logger returns a middleware that logs every request with its method,
// path, status and duration.
func Logger() func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			saw := &statusAwareResponseWriter{ResponseWriter: w}
			handler.ServeHTTP(saw, r)

			if saw.status == 0 {
				saw.status = http.StatusOK
			}

			slog.InfoContext(r.Context(), "Handled request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", saw.status,
				"duration", time.Since(start))
		})
	}
}

// Recovery returns a middleware that converts handler panics into 500
// responses instead of tearing down the server.
func Recovery() func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.ErrorContext(r.Context(), "Handler panicked",
						"panic", rec,
						"path", r.URL.Path,
						"stack", string(debug.Stack()))
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()

			handler.ServeHTTP(w, r)
		})
	}
}

package worker

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Captures the status code and bytes written for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += int64(n)
	return n, err
}

// Forwards flushes so streaming responses keep working through the
// recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Tags each request with an ID and writes one access log line when it
// finishes. The line is deferred so aborted requests are logged too.
func (w *Worker) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		rw.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: rw}
		start := time.Now()

		defer func() {
			slog.Debug("request",
				"worker", w.id,
				"id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration", time.Since(start).Truncate(time.Microsecond),
				"remote", r.RemoteAddr)
		}()

		next.ServeHTTP(rec, r)
	})
}

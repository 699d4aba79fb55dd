package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ritzau/webbuild/pkg/logging"
)

const requestIDHeader = "X-Request-ID"

// requestLog tags every request with an ID (reusing the client's if sent)
// and logs one line when it finishes. SSE streams are logged when they close.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := logging.WithRequestID(r.Context(), id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"durationMs", time.Since(start).Milliseconds(),
		}
		if rec.status >= http.StatusBadRequest {
			logging.WarnContext(ctx, "request failed", attrs...)
			return
		}
		logging.DebugContext(ctx, "request served", attrs...)
	})
}

// statusRecorder remembers the response status for the log line
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush passes through so event streams are not held back
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

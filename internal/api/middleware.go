package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gnemet/LessonForge/internal/logger"
)

type ctxKey int

const requestLoggerKey ctxKey = iota

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequest tags every request with an id, answers CORS preflights,
// recovers from panics and logs the outcome.
func withRequest(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		enableCORS(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		reqLog := log.With("request_id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		defer func() {
			if p := recover(); p != nil {
				reqLog.Error("Handler panic", "panic", p, "path", r.URL.Path)
				writeError(rec, http.StatusInternalServerError, "Internal server error")
			}
			reqLog.Info("Request", "method", r.Method, "path", r.URL.Path,
				"status", rec.status, "elapsed", time.Since(start))
		}()

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestLoggerKey, reqLog)))
	})
}

func requestLogger(ctx context.Context, fallback *logger.Logger) *logger.Logger {
	if l, ok := ctx.Value(requestLoggerKey).(*logger.Logger); ok {
		return l
	}
	return fallback
}

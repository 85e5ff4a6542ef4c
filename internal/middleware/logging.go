package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// principalSink lets handlers deeper in the chain report who the caller was,
// since RequireAuth stores the principal on a derived request.
type principalSink struct {
	userID string
}

const principalSinkKey contextKey = "principal_sink"

func contextWithSink(ctx context.Context, sink *principalSink) context.Context {
	return context.WithValue(ctx, principalSinkKey, sink)
}

// reportPrincipal records the authenticated user on the request's logging sink, if any.
func reportPrincipal(ctx context.Context, userID string) {
	if sink, ok := ctx.Value(principalSinkKey).(*principalSink); ok {
		sink.userID = userID
	}
}

// Logging logs every request with method, path, status, user ID and duration.
// 5xx responses log at Error, 4xx at Warn, everything else at Info.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			sink := &principalSink{}
			r = r.WithContext(contextWithSink(r.Context(), sink))

			next.ServeHTTP(rec, r)

			status := rec.code()
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"user_id", sink.userID,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

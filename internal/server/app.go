package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/quillwiki/quillwiki/templater"
	"github.com/quillwiki/quillwiki/wiki"
	"github.com/quillwiki/quillwiki/wiki/service"
)

// App holds all application dependencies and services.
type App struct {
	*templater.Templater
	Pages         service.PageService
	Users         service.UserService
	Sessions      service.SessionService
	Rendering     service.RenderingService
	Moderation    service.ModerationService
	Stats         service.StatsService
	Config        *wiki.Config
	RuntimeConfig *wiki.RuntimeConfig
	DB            *sql.DB
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// SlogLoggingMiddleware logs HTTP requests using slog. Each request is tagged
// with a generated id, echoed back in the X-Request-ID header.
func SlogLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"size", wrapped.size,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
			"request_id", requestID,
		)
	})
}

func check(err error) {
	if err != nil {
		slog.Error("unexpected error", "error", err)
	}
}

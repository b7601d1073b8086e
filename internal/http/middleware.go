package http

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// Middleware defines the standard signature for an HTTP middleware.
type Middleware func(http.Handler) http.Handler

// paramsMiddleware handles common query parameters like 'verbose' and
// 'dry_run'. forceDryRun marks every request as a dry run.
func paramsMiddleware(forceDryRun bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Handle 'verbose' for request-scoped verbose logging.
			if r.URL.Query().Get("verbose") == "true" {
				originalLevel := log.GetLevel()
				log.SetLevel(log.DebugLevel)
				// Side effects queued by this request run after the level is restored.
				defer log.SetLevel(originalLevel)
			}

			isDryRun := forceDryRun || r.URL.Query().Get("dry_run") == "true"
			ctx := tasks.WithDryRun(r.Context(), isDryRun)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestLogger logs one line per request once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info("incoming request",
				"method", r.Method,
				"url", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}

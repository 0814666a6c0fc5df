package router

import (
	"net/http"
	"time"

	"britlab/timesheet-portal/internal/handler"
	"britlab/timesheet-portal/internal/proxy"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func New(portal *handler.PortalHandler, relay *proxy.Relay, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	r.Get("/health", portal.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", portal.Login)
		r.Post("/logout", portal.Logout)
		r.Get("/session", portal.Session)
		r.Get("/entries", portal.ListEntries)
		r.Post("/entries", portal.CreateEntry)
		r.Delete("/entries/{id}", portal.DeleteEntry)
		r.Get("/summary", portal.Summary)
	})

	// The relay owns CORS and method handling itself.
	r.Handle("/api/proxy", relay)

	return r
}

// requestLogger logs every request with its duration.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

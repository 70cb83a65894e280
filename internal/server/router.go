// Package server exposes the report pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mealtrail/mealtrail/internal/fetch"
	"github.com/mealtrail/mealtrail/internal/logger"
	"github.com/mealtrail/mealtrail/internal/report"
)

// BlobFetcher retrieves the encrypted blob for a cardholder.
type BlobFetcher interface {
	FetchBlob(ctx context.Context, creds fetch.Credentials) (string, error)
}

// NewRouter creates the HTTP router. fetcher may be nil, in which case the
// fetch route answers 501.
func NewRouter(pipeline *report.Pipeline, fetcher BlobFetcher, log zerolog.Logger) http.Handler {
	h := &handlers{pipeline: pipeline, fetcher: fetcher}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Post("/report", h.reportFromBody)
		r.Post("/report/fetch", h.reportFromFetch)
	})
	return r
}

// requestLogger stores a request-scoped logger in the context and logs each
// request. 5xx logs at error, 4xx at warn.
func requestLogger(base zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			log := base.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			r = r.WithContext(logger.WithContext(r.Context(), log))

			defer func() {
				status := ww.Status()
				var ev *zerolog.Event
				switch {
				case status >= 500:
					ev = log.Error()
				case status >= 400:
					ev = log.Warn()
				default:
					ev = log.Info()
				}
				ev.Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Dur("latency", time.Since(start)).
					Msg("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

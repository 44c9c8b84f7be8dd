// Package ops serves metrics and health probes for the hosts of a process.
package ops

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const probeTimeout = 5 * time.Second

type probeResponse struct {
	Status string            `json:"status"`
	Scopes int               `json:"scopes"`
	Errors map[string]string `json:"errors,omitempty"`
}

// NewRouter returns the ops handler:
//
//	GET /metrics  Prometheus exposition of gatherer
//	GET /healthz  liveness of every registered host
//	GET /readyz   readiness of every registered host; 503 with no hosts
func NewRouter(hosts *Registry, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", probe(hosts, Prober.Live, false))
	r.Get("/readyz", probe(hosts, Prober.Ready, true))

	return r
}

func probe(hosts *Registry, check func(Prober, context.Context) error, requireHosts bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		resp := probeResponse{Status: "up", Errors: map[string]string{}}
		hosts.each(func(id string, p Prober) {
			resp.Scopes++
			if err := check(p, ctx); err != nil {
				resp.Errors[id] = err.Error()
			}
		})

		status := http.StatusOK
		if len(resp.Errors) > 0 || (requireHosts && resp.Scopes == 0) {
			resp.Status = "down"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("ops request completed",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}

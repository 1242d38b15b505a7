// Package localapi is a local implementation of the statistics service,
// used offline and as the test double for the client.
package localapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type computeRequest struct {
	Values []float64 `json:"valeurs"`
}

// Server serves /calculer, /healthz and /metrics.
type Server struct {
	router   chi.Router
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
	values   prometheus.Histogram
	logger   zerolog.Logger
}

// NewServer builds the router with its own metrics registry.
func NewServer(logger zerolog.Logger) *Server {
	s := &Server{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tuistat_compute_requests_total",
			Help: "Total number of compute requests by status.",
		}, []string{"status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tuistat_compute_duration_seconds",
			Help:    "Compute request duration in seconds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		values: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tuistat_compute_values",
			Help:    "Number of values per compute request.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		logger: logger,
	}
	s.registry.MustRegister(s.requests, s.latency, s.values)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/calculer", s.handleCompute)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		s.requests.WithLabelValues(strconv.Itoa(status)).Inc()
		s.latency.Observe(time.Since(start).Seconds())
	}()

	var req computeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		status = http.StatusBadRequest
		s.logger.Debug().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("malformed compute body")
		render.Status(r, status)
		render.PlainText(w, r, "Requête invalide : corps JSON attendu {\"valeurs\": [...]}")
		return
	}
	s.values.Observe(float64(len(req.Values)))

	rec, err := Compute(req.Values)
	if err != nil {
		status = http.StatusBadRequest
		render.Status(r, status)
		render.PlainText(w, r, err.Error())
		return
	}
	s.logger.Debug().
		Str("request_id", middleware.GetReqID(r.Context())).
		Int("values", len(req.Values)).
		Msg("computed statistics")
	render.JSON(w, r, rec)
}

// ListenAndServe runs handler on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("local statistics API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		logger.Info().Msg("local statistics API stopped")
		return nil
	}
}

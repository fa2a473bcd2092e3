package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedwatch/internal/observability/tracing"
	"feedwatch/internal/usecase/notify"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ChannelHealthResponse represents the health status of all notification channels.
type ChannelHealthResponse struct {
	Healthy  bool            `json:"healthy"`
	Channels []ChannelStatus `json:"channels"`
}

// ChannelStatus represents the status of a single notification channel.
type ChannelStatus struct {
	Name               string     `json:"name"`
	Enabled            bool       `json:"enabled"`
	CircuitBreakerOpen bool       `json:"circuit_breaker_open"`
	DisabledUntil      *time.Time `json:"disabled_until,omitempty"`
}

// FeedHostStatus is the fetch circuit state of one feed host.
type FeedHostStatus struct {
	Host  string `json:"host"`
	State string `json:"state"`
}

// breakerReporter exposes per-host fetch breaker states.
type breakerReporter interface {
	BreakerStates() map[string]string
}

// newMetricsHandler builds the routes served on METRICS_PORT:
//   - GET /metrics: Prometheus exposition
//   - GET /health: liveness
//   - GET /health/channels: 503 when an enabled channel's breaker is open
//   - GET /health/feeds: fetch breaker state per feed host
func newMetricsHandler(notifyService notify.Service, fetcher breakerReporter) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /health/channels", channelHealthHandler(notifyService))
	mux.HandleFunc("GET /health/feeds", feedHealthHandler(fetcher))
	return tracing.Middleware(mux)
}

// startMetricsServer serves newMetricsHandler on addr until ctx is cancelled.
func startMetricsServer(ctx context.Context, logger *slog.Logger, addr string, notifyService notify.Service, fetcher breakerReporter) *http.Server {
	server := &http.Server{
		Addr:         addr,
		Handler:      newMetricsHandler(notifyService, fetcher),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func channelHealthHandler(notifyService notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if notifyService == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "notification service not initialized",
			})
			return
		}

		statuses := notifyService.GetChannelHealth()
		resp := ChannelHealthResponse{Healthy: true, Channels: make([]ChannelStatus, 0, len(statuses))}
		for _, s := range statuses {
			resp.Channels = append(resp.Channels, ChannelStatus{
				Name:               s.Name,
				Enabled:            s.Enabled,
				CircuitBreakerOpen: s.CircuitBreakerOpen,
				DisabledUntil:      s.DisabledUntil,
			})
			if s.Enabled && s.CircuitBreakerOpen {
				resp.Healthy = false
			}
		}

		status := http.StatusOK
		if !resp.Healthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

// feedHealthHandler is informational: an open fetch breaker for one host
// does not make the worker unhealthy.
func feedHealthHandler(fetcher breakerReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		hosts := []FeedHostStatus{}
		if fetcher != nil {
			for host, state := range fetcher.BreakerStates() {
				hosts = append(hosts, FeedHostStatus{Host: host, State: state})
			}
		}
		sort.Slice(hosts, func(i, j int) bool { return hosts[i].Host < hosts[j].Host })
		writeJSON(w, http.StatusOK, hosts)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

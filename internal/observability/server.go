// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

// Package observability provides HTTP endpoints for metrics and health checks.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker returns whether the service is ready.
type ReadinessChecker func() bool

// Metrics contains the ShopWarden Prometheus metrics.
type Metrics struct {
	RegistrationsTotal prometheus.Counter
	LoginsTotal        *prometheus.CounterVec
	ResetRequestsTotal prometheus.Counter
	ResetsTotal        *prometheus.CounterVec
	IdentitiesPurged   prometheus.Counter
	TicketsCleared     prometheus.Counter
}

// NewMetrics creates and registers the ShopWarden metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopwarden_registrations_total",
			Help: "Total number of successful registrations",
		}),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopwarden_logins_total",
				Help: "Total number of login attempts by status",
			},
			[]string{"status"},
		),
		ResetRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopwarden_reset_requests_total",
			Help: "Total number of password reset requests",
		}),
		ResetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopwarden_resets_total",
				Help: "Total number of password reset attempts by status",
			},
			[]string{"status"},
		),
		IdentitiesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopwarden_identities_purged_total",
			Help: "Total number of identities removed by the inactivity sweep",
		}),
		TicketsCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopwarden_reset_tickets_cleared_total",
			Help: "Total number of expired reset tickets cleared by the sweep",
		}),
	}

	reg.MustRegister(
		m.RegistrationsTotal,
		m.LoginsTotal,
		m.ResetRequestsTotal,
		m.ResetsTotal,
		m.IdentitiesPurged,
		m.TicketsCleared,
	)

	return m
}

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (":9090" for all interfaces).
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	// Own registry keeps the global one clean.
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics := NewMetrics(registry)

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  metrics,
		isReady:  readinessChecker,
	}
}

// Metrics returns the metrics for recording application events.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins serving observability endpoints. It returns an error
// channel that receives any server failure after startup; the channel is
// closed on graceful shutdown.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		// Local httpSrv avoids a race with subsequent Start() calls.
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the observability server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			// Restore running state so the server can be stopped again.
			s.running.Store(true)
			return oops.With("operation", "shutdown_observability_server").Wrap(err)
		}
	}

	slog.Info("observability server stopped")
	return nil
}

// Addr returns the address the server is listening on, or empty when not
// running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// handleLiveness returns 200 if the process is running.
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}

// handleReadiness returns 200 when ready, 503 otherwise.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if s.isReady == nil || s.isReady() {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // health check write error is acceptable, client may disconnect
		w.Write([]byte("ok\n"))
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("not ready\n"))
}

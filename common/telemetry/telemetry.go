package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/awschultz/locationmodel/common/config"
	"github.com/awschultz/locationmodel/common/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry holds observability components
type Telemetry struct {
	log     *logger.Logger
	cfg     config.TelemetryConfig
	servers []*http.Server
}

// New creates telemetry components
func New(cfg config.TelemetryConfig, log *logger.Logger) *Telemetry {
	return &Telemetry{
		log: log,
		cfg: cfg,
	}
}

// Start starts the pprof and Prometheus endpoints that are enabled
func (t *Telemetry) Start(ctx context.Context) error {
	if t.cfg.EnablePprof {
		// pprof registers itself on the default mux
		t.serve("pprof", fmt.Sprintf("localhost:%d", t.cfg.PprofPort), http.DefaultServeMux)
	}

	if t.cfg.EnableMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		t.serve("metrics", fmt.Sprintf(":%d", t.cfg.MetricsPort), mux)
	}

	return nil
}

// Stop shuts the telemetry endpoints down
func (t *Telemetry) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	for _, srv := range t.servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.servers = nil
	return errors.Join(errs...)
}

func (t *Telemetry) serve(name, addr string, handler http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	t.servers = append(t.servers, srv)

	go func() {
		t.log.Info(name+" server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.log.Error(name+" server error", "error", err)
		}
	}()
}

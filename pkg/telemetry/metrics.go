package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for CaseFlow. A nil *Metrics or a
// disabled configuration yields no-op recorders, so callers never need to
// guard instrumentation sites.
type Metrics struct {
	config MetricsConfig

	// Case metrics
	casesStarted   prometheus.Counter
	casesCompleted *prometheus.CounterVec
	caseDuration   *prometheus.HistogramVec

	// Step metrics
	stepsExecuted *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec

	// Plugin metrics
	pluginsRegistered prometheus.Gauge
	pluginErrors      *prometheus.CounterVec

	// Resolver metrics
	resolutionMisses prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// No-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		casesStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cases_started_total",
				Help:      "Total number of test case runs started",
			},
		),
		casesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cases_completed_total",
				Help:      "Total number of test case runs completed",
			},
			[]string{"status"},
		),
		caseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "case_duration_seconds",
				Help:      "Duration of test case runs in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),
		stepsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_executed_total",
				Help:      "Total number of steps dispatched",
			},
			[]string{"plugin", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of step dispatches in seconds",
				Buckets:   buckets,
			},
			[]string{"plugin", "action"},
		),
		pluginsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plugins_registered",
				Help:      "Current number of registered plugins",
			},
		),
		pluginErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plugin_errors_total",
				Help:      "Total number of step dispatch failures by reserved code",
			},
			[]string{"plugin", "code"},
		),
		resolutionMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolution_misses_total",
				Help:      "Total number of data reference tokens left unresolved",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.casesStarted, m.casesCompleted, m.caseDuration,
		m.stepsExecuted, m.stepDuration,
		m.pluginsRegistered, m.pluginErrors,
		m.resolutionMisses,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// CaseStarted records the start of a case run.
func (m *Metrics) CaseStarted() {
	if !m.enabled() {
		return
	}
	m.casesStarted.Inc()
}

// CaseCompleted records a completed case run and its duration.
func (m *Metrics) CaseCompleted(success bool, d time.Duration) {
	if !m.enabled() {
		return
	}
	status := "failed"
	if success {
		status = "succeeded"
	}
	m.casesCompleted.WithLabelValues(status).Inc()
	m.caseDuration.WithLabelValues(status).Observe(d.Seconds())
}

// StepExecuted records a dispatched step and its duration.
func (m *Metrics) StepExecuted(plugin, action string, success bool, d time.Duration) {
	if !m.enabled() {
		return
	}
	status := "failed"
	if success {
		status = "succeeded"
	}
	m.stepsExecuted.WithLabelValues(plugin, status).Inc()
	m.stepDuration.WithLabelValues(plugin, action).Observe(d.Seconds())
}

// PluginError records a step dispatch failure by reserved error code.
func (m *Metrics) PluginError(plugin, code string) {
	if !m.enabled() {
		return
	}
	m.pluginErrors.WithLabelValues(plugin, code).Inc()
}

// SetPluginsRegistered records the current registry size.
func (m *Metrics) SetPluginsRegistered(n int) {
	if !m.enabled() {
		return
	}
	m.pluginsRegistered.Set(float64(n))
}

// ResolutionMiss records a data reference token left unresolved.
func (m *Metrics) ResolutionMiss() {
	if !m.enabled() {
		return
	}
	m.resolutionMisses.Inc()
}

// Handler returns an HTTP handler exposing the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics endpoint until the context is cancelled.
func (m *Metrics) Serve(ctx context.Context) error {
	if !m.enabled() {
		return nil
	}

	mux := http.NewServeMux()
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, m.Handler())

	srv := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

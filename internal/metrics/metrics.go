// Package metrics exposes Prometheus collectors describing poll cycles.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clubot"

// Metrics holds the collectors updated by the poller. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	cycles        *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	newEvents     *prometheus.CounterVec
	suppressed    *prometheus.CounterVec
	records       *prometheus.GaugeVec
	lastSuccess   *prometheus.GaugeVec
}

// New creates the collectors and registers them with a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Activity poll cycles by outcome.",
			},
			[]string{"activity", "outcome"},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Time spent fetching, reconciling and saving one activity.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"activity"},
		),
		newEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "new_events_total",
				Help:      "Event titles seen for a date for the first time.",
			},
			[]string{"activity"},
		),
		suppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suppressed_events_total",
				Help:      "Records soft-deleted because they vanished from the agenda.",
			},
			[]string{"activity"},
		),
		records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records",
				Help:      "Records held in the activity history.",
			},
			[]string{"activity", "state"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful cycle.",
			},
			[]string{"activity"},
		),
	}

	m.registry.MustRegister(m.cycles, m.cycleDuration, m.newEvents, m.suppressed, m.records, m.lastSuccess)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCycle records the outcome and duration of one activity cycle
func (m *Metrics) ObserveCycle(activity string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
	} else {
		m.lastSuccess.WithLabelValues(activity).Set(float64(time.Now().Unix()))
	}

	m.cycles.WithLabelValues(activity, outcome).Inc()
	m.cycleDuration.WithLabelValues(activity).Observe(duration.Seconds())
}

// ObserveChanges records what a reconciliation changed and the resulting
// history size
func (m *Metrics) ObserveChanges(activity string, added, suppressed, total, live int) {
	if m == nil {
		return
	}

	m.newEvents.WithLabelValues(activity).Add(float64(added))
	m.suppressed.WithLabelValues(activity).Add(float64(suppressed))
	m.records.WithLabelValues(activity, "total").Set(float64(total))
	m.records.WithLabelValues(activity, "live").Set(float64(live))
}

// Handler serves the collectors in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

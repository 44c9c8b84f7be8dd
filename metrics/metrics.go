// Package metrics exports host and scope activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danpasecinic/scopehost"
)

const namespace = "scopehost"

// Observer records hosted service phase calls, resolutions and scopes run by
// a ScopeFactory. All methods are nil-safe: calls on a nil *Observer are
// no-ops.
type Observer struct {
	// PhaseDuration observes phase call latency, labelled by phase.
	PhaseDuration *prometheus.HistogramVec

	// PhaseFailures counts failed phase calls, labelled by phase.
	PhaseFailures *prometheus.CounterVec

	// Resolutions counts resolutions, labelled by outcome ("ok" or "error").
	Resolutions *prometheus.CounterVec

	// ActiveScopes tracks scopes between their created and closed events.
	ActiveScopes prometheus.Gauge

	// ScopesTotal counts scopes created.
	ScopesTotal prometheus.Counter
}

// NewObserver creates the collectors and registers them with reg. If reg is
// nil the collectors are created but not registered.
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "phase_duration_seconds",
			Help:      "Duration of hosted service phase calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10), // 0.5ms to ~130s
		}, []string{"phase"}),
		PhaseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "phase_failures_total",
			Help:      "Total number of failed hosted service phase calls",
		}, []string{"phase"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "container",
			Name:      "resolutions_total",
			Help:      "Total number of service resolutions",
		}, []string{"outcome"}),
		ActiveScopes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scopes",
			Name:      "active",
			Help:      "Current number of running scopes",
		}),
		ScopesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scopes",
			Name:      "created_total",
			Help:      "Total number of scopes created",
		}),
	}

	if reg != nil {
		o.PhaseDuration = registerOrReuse(reg, o.PhaseDuration).(*prometheus.HistogramVec)
		o.PhaseFailures = registerOrReuse(reg, o.PhaseFailures).(*prometheus.CounterVec)
		o.Resolutions = registerOrReuse(reg, o.Resolutions).(*prometheus.CounterVec)
		o.ActiveScopes = registerOrReuse(reg, o.ActiveScopes).(prometheus.Gauge)
		o.ScopesTotal = registerOrReuse(reg, o.ScopesTotal).(prometheus.Counter)
	}

	return o
}

// registerOrReuse registers c with reg. If an identical collector is already
// registered it returns the existing one, so two containers sharing a
// registry export into the same series. Panics on any other failure.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// Options returns the container options that feed o.
func (o *Observer) Options() []scopehost.Option {
	if o == nil {
		return nil
	}
	return []scopehost.Option{
		scopehost.WithPhaseObserver(o.ObservePhase),
		scopehost.WithResolveObserver(o.ObserveResolve),
		scopehost.WithScopeObserver(o.ObserveScope),
	}
}

func (o *Observer) ObservePhase(_ string, phase scopehost.Phase, d time.Duration, err error) {
	if o == nil {
		return
	}
	o.PhaseDuration.WithLabelValues(phase.String()).Observe(d.Seconds())
	if err != nil {
		o.PhaseFailures.WithLabelValues(phase.String()).Inc()
	}
}

func (o *Observer) ObserveResolve(_ string, _ time.Duration, err error) {
	if o == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.Resolutions.WithLabelValues(outcome).Inc()
}

func (o *Observer) ObserveScope(_ string, event scopehost.ScopeEvent) {
	if o == nil {
		return
	}
	switch event {
	case scopehost.ScopeCreated:
		o.ScopesTotal.Inc()
		o.ActiveScopes.Inc()
	case scopehost.ScopeClosed:
		o.ActiveScopes.Dec()
	}
}

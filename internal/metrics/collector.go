// Package metrics exposes simulator activity as Prometheus metrics.
//
// Collector implements event.Notifier, so attaching it with
// Engine.Subscribe is enough to keep the counters current. It also
// provides HTTP middleware for request counts and latency.
package metrics

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/sovd-sim/internal/event"
	"github.com/nerrad567/sovd-sim/internal/vehicle"
)

const namespace = "sovdsim"

// Collector bundles the simulator's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	Observations   prometheus.Counter
	ResourceWrites *prometheus.CounterVec
	LockEvents     *prometheus.CounterVec
	Operations     *prometheus.CounterVec
	FaultsInjected *prometheus.CounterVec
	FaultsCleared  *prometheus.CounterVec
	ModeChanges    prometheus.Counter
	VehicleState   *prometheus.GaugeVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDurations  *prometheus.HistogramVec
}

// NewCollector creates a collector on its own registry, including the Go
// runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		Observations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_total",
			Help:      "Physical state observations (each advances the simulation one tick).",
		}),
		ResourceWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_writes_total",
			Help:      "Successful data resource writes.",
		}, []string{"entity", "resource"}),
		LockEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_events_total",
			Help:      "Lock acquisitions, releases and rejected tokens.",
		}, []string{"entity", "event"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operation lifecycle transitions by resulting status.",
		}, []string{"entity", "operation", "status"}),
		FaultsInjected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_injected_total",
			Help:      "Faults injected by the simulation.",
		}, []string{"entity"}),
		FaultsCleared: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_cleared_total",
			Help:      "Faults removed by clear requests.",
		}, []string{"entity"}),
		ModeChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mode_changes_total",
			Help:      "Vehicle mode changes.",
		}),
		VehicleState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vehicle_state",
			Help:      "Most recently observed numeric vehicle state.",
		}, []string{"metric"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.Observations,
		c.ResourceWrites,
		c.LockEvents,
		c.Operations,
		c.FaultsInjected,
		c.FaultsCleared,
		c.ModeChanges,
		c.VehicleState,
		c.HTTPRequests,
		c.HTTPDurations,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Broadcast implements event.Notifier.
func (c *Collector) Broadcast(channel string, payload any) {
	if channel == event.ChannelVehicleObserved {
		c.Observations.Inc()
		if state, ok := payload.(vehicle.State); ok {
			for name, v := range state.Metrics() {
				c.VehicleState.WithLabelValues(name).Set(v)
			}
		}
		return
	}

	m, _ := payload.(map[string]any)
	entity := str(m, "entity_id")

	switch channel {
	case event.ChannelResourceWritten:
		c.ResourceWrites.WithLabelValues(entity, str(m, "resource")).Inc()
	case event.ChannelLockAcquired, event.ChannelLockReleased, event.ChannelLockRejected:
		c.LockEvents.WithLabelValues(entity, strings.TrimPrefix(channel, "lock.")).Inc()
	case event.ChannelOperationStarted, event.ChannelOperationCompleted, event.ChannelOperationStopped:
		c.Operations.WithLabelValues(entity, str(m, "name"), str(m, "status")).Inc()
	case event.ChannelFaultInjected:
		c.FaultsInjected.WithLabelValues(entity).Inc()
	case event.ChannelFaultCleared:
		c.FaultsCleared.WithLabelValues(entity).Inc()
	case event.ChannelModeChanged:
		c.ModeChanges.Inc()
	}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// ObserveHTTP records one handled request.
func (c *Collector) ObserveHTTP(method, route string, code int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.HTTPDurations.WithLabelValues(method, route).Observe(seconds)
}

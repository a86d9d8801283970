// Package metrics exposes indicator observations as Prometheus metrics.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jjfalling/indicator-checker/internal/events"
)

// Gauge values for indicator_state.
const (
	stateOff      = 0
	stateOn       = 1
	stateBlinking = 2
)

// Exporter subscribes to the event bus and maintains a private Prometheus
// registry served over HTTP.
type Exporter struct {
	registry *prometheus.Registry
	logger   *slog.Logger
	unsubs   []func()

	indicatorState  prometheus.Gauge
	classifications *prometheus.CounterVec
	sensorErrors    *prometheus.CounterVec
	reboots         prometheus.Counter
	resets          prometheus.Counter
	spread          prometheus.Gauge
}

// NewExporter creates the exporter and registers its collectors.
func NewExporter(logger *slog.Logger) *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		logger:   logger,
		indicatorState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indicator_state",
			Help: "Last classified indicator state (0=off, 1=on, 2=blinking).",
		}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_classifications_total",
			Help: "Classifications by resulting state.",
		}, []string{"state"}),
		sensorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_sensor_errors_total",
			Help: "Classification aborts by sensor backend.",
		}, []string{"sensor"}),
		reboots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicator_reboots_total",
			Help: "Completed relay reboot actions.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicator_resets_total",
			Help: "Controller reset actions.",
		}),
		spread: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indicator_sample_spread",
			Help: "Spread (max-min scalar intensity) of the last sample window.",
		}),
	}

	registry.MustRegister(
		e.indicatorState,
		e.classifications,
		e.sensorErrors,
		e.reboots,
		e.resets,
		e.spread,
	)
	return e
}

// Start subscribes the exporter to the bus.
func (e *Exporter) Start(bus *events.Bus) {
	e.unsubs = append(e.unsubs,
		bus.Subscribe(func(ev events.StatusEvent) { e.handleStatus(ev) }),
		bus.Subscribe(func(ev events.SensorErrorEvent) {
			e.sensorErrors.WithLabelValues(ev.Sensor).Inc()
		}),
		bus.Subscribe(func(ev events.RebootEvent) { e.reboots.Inc() }),
		bus.Subscribe(func(ev events.ResetEvent) { e.resets.Inc() }),
	)
	e.logger.Info("Metrics exporter started")
}

// Stop unsubscribes from the bus.
func (e *Exporter) Stop() {
	for _, unsub := range e.unsubs {
		unsub()
	}
	e.unsubs = nil
}

// Handler returns the HTTP handler serving the registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func (e *Exporter) handleStatus(ev events.StatusEvent) {
	e.classifications.WithLabelValues(ev.State).Inc()
	e.spread.Set(float64(ev.Spread))

	switch ev.State {
	case "Indicator Off":
		e.indicatorState.Set(stateOff)
	case "Indicator On":
		e.indicatorState.Set(stateOn)
	case "Indicator Blinking":
		e.indicatorState.Set(stateBlinking)
	}
}

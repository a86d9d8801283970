// Package station ties the sensor, sampler and classifier together into the
// single check operation the command dispatcher and the HTTP API share.
package station

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jjfalling/indicator-checker/internal/classifier"
	"github.com/jjfalling/indicator-checker/internal/config"
	"github.com/jjfalling/indicator-checker/internal/events"
	"github.com/jjfalling/indicator-checker/internal/sampler"
	"github.com/jjfalling/indicator-checker/internal/sensor"
)

// Station runs classifications against the configured sensor. The mutex
// keeps the one-command-at-a-time discipline when the HTTP API is enabled
// next to the serial channel; the sensor bus is never touched concurrently.
type Station struct {
	cfg    config.Settings
	sensor sensor.Sensor
	bus    *events.Bus
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a station over the given sensor.
func New(cfg config.Settings, s sensor.Sensor, bus *events.Bus, logger *slog.Logger) *Station {
	return &Station{cfg: cfg, sensor: s, bus: bus, logger: logger}
}

// Check collects one sample window and classifies it. When verbose, each raw
// sample is echoed to echo before the result is returned.
func (st *Station) Check(verbose bool, echo io.Writer) (classifier.Result, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.sensor.Available() {
		err := fmt.Errorf("%s %w", st.sensor.Kind(), sensor.ErrUnavailable)
		st.publishError(err)
		return classifier.Result{}, err
	}

	samples, err := sampler.Collect(st.sensor, st.cfg.NumberOfChecks, st.cfg.InterCheckDelay, verbose, echo)
	if err != nil {
		st.publishError(err)
		return classifier.Result{}, err
	}

	result := classifier.Classify(samples, st.cfg.BlinkDiff, st.cfg.LowerLimit)
	st.logger.Debug("Classified indicator",
		"state", result.State.String(),
		"spread", result.Spread,
		"min", result.Min)

	st.bus.Publish(events.StatusEvent{
		State:     result.State.String(),
		Spread:    result.Spread,
		Min:       result.Min,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return result, nil
}

// Channels returns the active sensor's channel names for rendering.
func (st *Station) Channels() []string {
	return st.sensor.Channels()
}

// Settings returns the immutable runtime configuration.
func (st *Station) Settings() config.Settings {
	return st.cfg
}

func (st *Station) publishError(err error) {
	st.logger.Warn("Classification aborted", "error", err)
	st.bus.Publish(events.SensorErrorEvent{
		Sensor:    st.sensor.Kind().String(),
		Error:     err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

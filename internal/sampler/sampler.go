// Package sampler collects a fixed window of readings from the active sensor.
package sampler

import (
	"io"
	"time"

	"github.com/jjfalling/indicator-checker/internal/sensor"
)

// Collect reads exactly count samples from s, sleeping interCheckDelay
// between reads but not before the first or after the last. The delay is
// what lets a blinking indicator's on/off cycle fall inside the window; it is
// tuned by the operator against the indicator's blink period, never computed.
//
// The first read error aborts the window and is returned as-is.
func Collect(s sensor.Sensor, count int, interCheckDelay time.Duration, verbose bool, echo io.Writer) ([]sensor.Sample, error) {
	samples := make([]sensor.Sample, 0, count)
	for i := 0; i < count; i++ {
		if i > 0 && interCheckDelay > 0 {
			time.Sleep(interCheckDelay)
		}
		sample, err := s.ReadSample(verbose, echo)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

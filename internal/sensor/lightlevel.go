package sensor

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// lightLevel reads a photoresistor through a Linux IIO ADC channel, e.g.
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw on a board with an
// MCP3008 or similar converter.
type lightLevel struct {
	path      string
	available bool
	logger    *slog.Logger
}

func newLightLevel(adcPath string, logger *slog.Logger) *lightLevel {
	s := &lightLevel{path: adcPath, logger: logger}

	if _, err := os.Stat(adcPath); err != nil {
		logger.Warn("ADC channel not found", "path", adcPath, "error", err)
		return s
	}
	s.available = true
	logger.Info("Light-level sensor ready", "path", adcPath)
	return s
}

func (s *lightLevel) Kind() Kind { return LightLevel }

func (s *lightLevel) Channels() []string { return nil }

func (s *lightLevel) Available() bool { return s.available }

// ReadSample reads the raw ADC value. The read is synchronous; there is no
// readiness concept for this backend.
func (s *lightLevel) ReadSample(verbose bool, echo io.Writer) (Sample, error) {
	if !s.available {
		return Sample{}, fmt.Errorf("%s %w", LightLevel, ErrUnavailable)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Sample{}, fmt.Errorf("%s %w", LightLevel, ErrUnavailable)
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return Sample{}, fmt.Errorf("%s sensor returned %q: %w", LightLevel, strings.TrimSpace(string(data)), err)
	}

	sample := Sample{Count: 1}
	sample.Values[0] = value
	if verbose {
		echoSample(echo, sample, nil)
	}
	return sample, nil
}

// Package sensor provides a uniform interface over the three light sensor
// backends that can observe the device's indicator LED: a photoresistor on an
// ADC channel, an AS726x 6-channel spectral sensor, and a TCS34725 RGB color
// sensor.
package sensor

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Kind identifies a sensor backend. It is resolved from configuration once at
// startup; nothing dispatches on sensor-type strings at runtime.
type Kind int

const (
	// LightLevel is a single-channel photoresistor read through an ADC.
	LightLevel Kind = iota
	// SpectralSix is the AS726x 6-channel spectral sensor.
	SpectralSix
	// ColorThree is the TCS34725 RGB color sensor.
	ColorThree
)

// String returns the driver name used in user-visible error messages.
func (k Kind) String() string {
	switch k {
	case LightLevel:
		return "photoresistor"
	case SpectralSix:
		return "AS726x"
	case ColorThree:
		return "TCS34725"
	}
	return "unknown"
}

// MaxChannels is the width of the channel record. Backends with fewer
// channels leave the trailing slots at zero.
const MaxChannels = 6

// Sample is one reading from a sensor at one point in time. Values is always
// 6 wide for uniformity across backends: the light-level backend uses slot 0
// only and the color backend uses slots 0..2; unused slots stay zero.
type Sample struct {
	Values [MaxChannels]int
	Count  int
}

// Intensity reduces the sample to one scalar: the raw reading for a
// single-channel sample, otherwise the truncating mean of the used channels.
func (s Sample) Intensity() int {
	if s.Count <= 1 {
		return s.Values[0]
	}
	sum := 0
	for i := 0; i < s.Count; i++ {
		sum += s.Values[i]
	}
	return sum / s.Count
}

// Sentinel errors for the taxonomy in the command protocol. Backends wrap
// them with their driver name, so err.Error() reads e.g.
// "AS726x sensor is not returning data".
var (
	ErrUnavailable   = errors.New("sensor is not available")
	ErrTimeout       = errors.New("sensor is not returning data")
	ErrInvalidSensor = errors.New("invalid sensor configured")
)

// Sensor is the capability interface each backend implements once.
type Sensor interface {
	// Kind reports which backend this is.
	Kind() Kind
	// Channels returns the channel names in sample order, nil for
	// single-channel backends.
	Channels() []string
	// Available reports whether startup initialization succeeded.
	Available() bool
	// ReadSample takes one reading. When verbose, the raw reading is
	// echoed to echo as a formatted line before returning.
	ReadSample(verbose bool, echo io.Writer) (Sample, error)
}

// FormatSample renders a raw reading the way the verbose status path echoes
// it to the caller.
func FormatSample(s Sample, channels []string) string {
	if s.Count <= 1 || len(channels) < s.Count {
		return fmt.Sprintf("Reading: %d", s.Values[0])
	}
	parts := make([]string, s.Count)
	for i := 0; i < s.Count; i++ {
		parts[i] = fmt.Sprintf("%s: %d", channels[i], s.Values[i])
	}
	return strings.Join(parts, " ")
}

func echoSample(echo io.Writer, s Sample, channels []string) {
	if echo == nil {
		return
	}
	fmt.Fprintf(echo, "%s\r\n", FormatSample(s, channels))
}

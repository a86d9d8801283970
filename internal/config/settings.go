package config

import (
	"fmt"
	"time"
)

// Known sensor type identifiers. The string form only exists at the
// configuration boundary; internally the sensor package resolves it to a
// closed variant once at startup.
const (
	SensorLightLevel = "lightlevel"
	SensorSpectral   = "spectral"
	SensorColor      = "color"
)

// Settings is the immutable runtime configuration for the indicator checker.
// It is constructed once at startup and passed by value into each component.
// No mutation path is exposed during a run.
type Settings struct {
	// Which sensor backend observes the indicator.
	SensorType string

	// Hardware wiring.
	RelayPin string // GPIO name driving the power relay (active high)
	ResetPin string // GPIO name pulled low to force a controller reset
	I2CBus   string // I2C bus for the spectral and color backends
	ADCPath  string // IIO sysfs raw-value file for the light-level backend

	// Classification thresholds.
	BlinkDiff  int // minimum spread between brightest and dimmest sample
	LowerLimit int // intensity below which the indicator counts as off

	// Sampling.
	NumberOfChecks  int           // samples per classification, must be >= 2
	InterCheckDelay time.Duration // pause between samples

	// Actions.
	RebootDelay      int           // seconds the relay stays high during a reboot
	ResetSettleDelay time.Duration // pause before pulling the reset line low
}

// Validate checks the settings for values the rest of the system relies on.
func (s Settings) Validate() error {
	switch s.SensorType {
	case SensorLightLevel, SensorSpectral, SensorColor:
	default:
		return fmt.Errorf("unknown sensor type %q", s.SensorType)
	}
	if s.NumberOfChecks < 2 {
		// A spread requires at least two points.
		return fmt.Errorf("number of checks must be at least 2, got %d", s.NumberOfChecks)
	}
	if s.BlinkDiff < 0 {
		return fmt.Errorf("blink diff must not be negative, got %d", s.BlinkDiff)
	}
	if s.LowerLimit < 0 {
		return fmt.Errorf("lower limit must not be negative, got %d", s.LowerLimit)
	}
	if s.InterCheckDelay < 0 {
		return fmt.Errorf("inter-check delay must not be negative, got %v", s.InterCheckDelay)
	}
	if s.RebootDelay < 1 {
		return fmt.Errorf("reboot delay must be at least 1 second, got %d", s.RebootDelay)
	}
	return nil
}

// Lines renders the settings as the response body of the "settings" command.
func (s Settings) Lines() []string {
	return []string{
		fmt.Sprintf("SensorType: %s", s.SensorType),
		fmt.Sprintf("RelayPin: %s", s.RelayPin),
		fmt.Sprintf("ResetPin: %s", s.ResetPin),
		fmt.Sprintf("BlinkDiff: %d", s.BlinkDiff),
		fmt.Sprintf("LowerLimit: %d", s.LowerLimit),
		fmt.Sprintf("InterCheckDelay: %d", s.InterCheckDelay.Milliseconds()),
		fmt.Sprintf("NumberOfChecks: %d", s.NumberOfChecks),
		fmt.Sprintf("RebootDelay: %d", s.RebootDelay),
	}
}

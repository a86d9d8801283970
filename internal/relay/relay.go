// Package relay drives the power relay and reset line of the observed device.
package relay

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Controller owns the two output lines. Each line is touched only by its own
// short action path, so no locking is needed beyond the one-command-at-a-time
// discipline of the callers.
type Controller struct {
	relay  gpio.PinIO
	reset  gpio.PinIO
	sleep  func(time.Duration)
	logger *slog.Logger
}

// New resolves the configured pins by name and parks them in their idle
// levels: relay low (device powered), reset high (controller running).
func New(relayPin, resetPin string, logger *slog.Logger) (*Controller, error) {
	relay := gpioreg.ByName(relayPin)
	if relay == nil {
		return nil, fmt.Errorf("relay pin %q not found", relayPin)
	}
	reset := gpioreg.ByName(resetPin)
	if reset == nil {
		return nil, fmt.Errorf("reset pin %q not found", resetPin)
	}

	c := NewWithPins(relay, reset, logger)
	if err := relay.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to park relay pin: %w", err)
	}
	if err := reset.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("failed to park reset pin: %w", err)
	}
	return c, nil
}

// NewLoopback creates a controller over in-memory pins for bench runs
// without GPIO hardware (serve --stdio).
func NewLoopback(logger *slog.Logger) *Controller {
	return NewWithPins(
		&gpiotest.Pin{N: "relay"},
		&gpiotest.Pin{N: "reset"},
		logger,
	)
}

// NewWithPins wires a controller onto already-resolved pins. Tests use it
// with gpiotest pins.
func NewWithPins(relay, reset gpio.PinIO, logger *slog.Logger) *Controller {
	return &Controller{
		relay:  relay,
		reset:  reset,
		sleep:  time.Sleep,
		logger: logger,
	}
}

// Reboot drives the relay high for durationSeconds, writing one progress
// marker per elapsed second, then drives it low unconditionally and writes
// the completion line callers wait for. The duration is measured as
// durationSeconds one-second sleeps; drift from overhead is accepted.
func (c *Controller) Reboot(durationSeconds int, progress io.Writer) error {
	c.logger.Info("Rebooting device", "duration_seconds", durationSeconds)

	if err := c.relay.Out(gpio.High); err != nil {
		return fmt.Errorf("failed to raise relay: %w", err)
	}

	for i := 0; i < durationSeconds; i++ {
		c.sleep(time.Second)
		fmt.Fprint(progress, ".")
	}

	// The relay goes low no matter what happened above.
	if err := c.relay.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to release relay: %w", err)
	}

	fmt.Fprint(progress, "\r\nReboot Completed\r\n")
	c.logger.Info("Reboot completed")
	return nil
}

// Reset pulls the dedicated reset line low after the settle delay and does
// not restore it; the controller is expected to restart.
func (c *Controller) Reset(settleDelay time.Duration) error {
	c.logger.Info("Resetting controller", "settle_delay", settleDelay)
	c.sleep(settleDelay)
	if err := c.reset.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to pull reset line: %w", err)
	}
	return nil
}

package relay

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func newTestController() (*Controller, *gpiotest.Pin, *gpiotest.Pin, *[]time.Duration) {
	relayPin := &gpiotest.Pin{N: "relay"}
	resetPin := &gpiotest.Pin{N: "reset"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c := NewWithPins(relayPin, resetPin, logger)
	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return c, relayPin, resetPin, &sleeps
}

func TestReboot(t *testing.T) {
	c, relayPin, _, sleeps := newTestController()
	var progress bytes.Buffer

	if err := c.Reboot(15, &progress); err != nil {
		t.Fatalf("Reboot() returned error: %v", err)
	}

	if len(*sleeps) != 15 {
		t.Errorf("Reboot slept %d times, want 15", len(*sleeps))
	}
	for _, d := range *sleeps {
		if d != time.Second {
			t.Errorf("sleep duration = %v, want 1s", d)
		}
	}

	out := progress.String()
	if got := strings.Count(out, "."); got != 15 {
		t.Errorf("wrote %d progress markers, want 15", got)
	}
	if !strings.HasSuffix(out, "\r\nReboot Completed\r\n") {
		t.Errorf("output does not end with the completion line: %q", out)
	}

	// The relay is back at its powered idle level.
	if relayPin.L != gpio.Low {
		t.Errorf("relay pin level = %v after reboot, want Low", relayPin.L)
	}
}

func TestRebootMinimumDuration(t *testing.T) {
	c, _, _, sleeps := newTestController()
	var progress bytes.Buffer

	if err := c.Reboot(1, &progress); err != nil {
		t.Fatalf("Reboot() returned error: %v", err)
	}
	if len(*sleeps) != 1 {
		t.Errorf("Reboot slept %d times, want 1", len(*sleeps))
	}
	if strings.Count(progress.String(), ".") != 1 {
		t.Errorf("progress output = %q, want one marker", progress.String())
	}
}

func TestReset(t *testing.T) {
	c, _, resetPin, sleeps := newTestController()

	if err := c.Reset(500 * time.Millisecond); err != nil {
		t.Fatalf("Reset() returned error: %v", err)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != 500*time.Millisecond {
		t.Errorf("Reset sleeps = %v, want one 500ms settle", *sleeps)
	}
	// The reset line stays low; the controller restart is expected to end
	// this process.
	if resetPin.L != gpio.Low {
		t.Errorf("reset pin level = %v, want Low", resetPin.L)
	}
}

func TestNewParksPins(t *testing.T) {
	relayPin := &gpiotest.Pin{N: "relay"}
	resetPin := &gpiotest.Pin{N: "reset"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c := NewWithPins(relayPin, resetPin, logger)
	if c.relay != relayPin || c.reset != resetPin {
		t.Error("NewWithPins did not keep the given pins")
	}
}

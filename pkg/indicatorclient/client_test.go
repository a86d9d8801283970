package indicatorclient

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/jjfalling/indicator-checker/internal/command"
	"github.com/jjfalling/indicator-checker/internal/config"
	"github.com/jjfalling/indicator-checker/internal/events"
	"github.com/jjfalling/indicator-checker/internal/relay"
	"github.com/jjfalling/indicator-checker/internal/sensor"
	"github.com/jjfalling/indicator-checker/internal/station"
)

// fakeDevice scripts one response per command for unit tests.
type fakeDevice struct {
	responses map[string]string
	commands  []string
	buf       bytes.Buffer
	closed    bool
}

func newFakeDevice(responses map[string]string) *fakeDevice {
	return &fakeDevice{responses: responses}
}

func (f *fakeDevice) Write(p []byte) (int, error) {
	cmd := strings.TrimRight(string(p), "\n")
	f.commands = append(f.commands, cmd)
	resp, ok := f.responses[cmd]
	if !ok {
		resp = "Unknown command. Send help for the command list.\r\n"
	}
	f.buf.WriteString(resp)
	f.buf.WriteByte(EOT)
	return len(p), nil
}

func (f *fakeDevice) Read(p []byte) (int, error) {
	if f.buf.Len() == 0 {
		return 0, io.EOF
	}
	return f.buf.Read(p)
}

func (f *fakeDevice) Close() error {
	f.closed = true
	return nil
}

func TestSendStripsFraming(t *testing.T) {
	device := newFakeDevice(map[string]string{"status": "Indicator On\r\n"})
	client := NewClient(device)

	resp, err := client.Send("status")
	if err != nil {
		t.Fatalf("Send() returned error: %v", err)
	}
	if resp != "Indicator On" {
		t.Errorf("Send() = %q, want %q", resp, "Indicator On")
	}
	if len(device.commands) != 1 || device.commands[0] != "status" {
		t.Errorf("device received commands %v", device.commands)
	}
}

func TestPing(t *testing.T) {
	device := newFakeDevice(map[string]string{"ping": "pong\r\n"})
	client := NewClient(device)

	if err := client.Ping(); err != nil {
		t.Errorf("Ping() returned error: %v", err)
	}
}

func TestPingUnexpectedResponse(t *testing.T) {
	device := newFakeDevice(map[string]string{"ping": "what\r\n"})
	client := NewClient(device)

	if err := client.Ping(); err == nil {
		t.Error("Ping() accepted a non-pong response")
	}
}

func TestVersionExtractsSemver(t *testing.T) {
	device := newFakeDevice(map[string]string{"version": "Device Indicator Checker v1.1.0\r\n"})
	client := NewClient(device)

	v, err := client.Version()
	if err != nil {
		t.Fatalf("Version() returned error: %v", err)
	}
	if v != "1.1.0" {
		t.Errorf("Version() = %q, want %q", v, "1.1.0")
	}
}

func TestVersionRejectsGarbage(t *testing.T) {
	device := newFakeDevice(map[string]string{"version": "no version here\r\n"})
	client := NewClient(device)

	if _, err := client.Version(); err == nil {
		t.Error("Version() accepted a banner without a version")
	}
}

func TestRebootVerifiesCompletion(t *testing.T) {
	device := newFakeDevice(map[string]string{
		"reboot": "...............\r\nReboot Completed\r\n",
	})
	client := NewClient(device)

	if err := client.Reboot(); err != nil {
		t.Errorf("Reboot() returned error: %v", err)
	}
}

func TestRebootDetectsFailure(t *testing.T) {
	device := newFakeDevice(map[string]string{"reboot": "Error: relay stuck\r\n"})
	client := NewClient(device)

	if err := client.Reboot(); err == nil {
		t.Error("Reboot() accepted a failed reboot")
	}
}

func TestCloseClosesChannel(t *testing.T) {
	device := newFakeDevice(nil)
	client := NewClient(device)

	if err := client.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
	if !device.closed {
		t.Error("Close() did not close the underlying channel")
	}
}

// TestAgainstDispatcher runs the client against the real command loop over an
// in-memory pipe.
func TestAgainstDispatcher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Settings{
		SensorType:     config.SensorLightLevel,
		BlinkDiff:      140,
		LowerLimit:     180,
		NumberOfChecks: 2,
		RebootDelay:    1,
	}
	bus := events.New()
	st := station.New(cfg, sensor.NewSimValues(200, 210), bus, logger)
	rc := relay.NewWithPins(&gpiotest.Pin{N: "relay"}, &gpiotest.Pin{N: "reset"}, logger)
	dispatcher := command.NewDispatcher(st, rc, bus, logger)

	clientEnd, serverEnd := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatcher.Serve(t.Context(), serverEnd)
	}()

	client := NewClient(clientEnd)

	if err := client.Ping(); err != nil {
		t.Errorf("Ping() returned error: %v", err)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status() returned error: %v", err)
	}
	if status != "Indicator On" {
		t.Errorf("Status() = %q, want %q", status, "Indicator On")
	}

	settings, err := client.Settings()
	if err != nil {
		t.Fatalf("Settings() returned error: %v", err)
	}
	if !strings.Contains(settings, "NumberOfChecks: 2") {
		t.Errorf("Settings() = %q", settings)
	}

	client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("command loop did not stop after the channel closed")
	}
}

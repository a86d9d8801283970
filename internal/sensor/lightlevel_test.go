package sensor

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeADCFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in_voltage0_raw")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write ADC file: %v", err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLightLevelReadSample(t *testing.T) {
	path := writeADCFile(t, "742\n")
	s := newLightLevel(path, discardLogger())

	if !s.Available() {
		t.Fatal("Available() = false for an existing ADC file")
	}

	sample, err := s.ReadSample(false, nil)
	if err != nil {
		t.Fatalf("ReadSample() returned error: %v", err)
	}
	if sample.Count != 1 || sample.Values[0] != 742 {
		t.Errorf("ReadSample() = %+v, want single-channel 742", sample)
	}
}

func TestLightLevelVerboseEcho(t *testing.T) {
	path := writeADCFile(t, "55")
	s := newLightLevel(path, discardLogger())

	var echo bytes.Buffer
	if _, err := s.ReadSample(true, &echo); err != nil {
		t.Fatalf("ReadSample() returned error: %v", err)
	}
	if got := echo.String(); got != "Reading: 55\r\n" {
		t.Errorf("echo = %q, want %q", got, "Reading: 55\r\n")
	}
}

func TestLightLevelMissingChannel(t *testing.T) {
	s := newLightLevel(filepath.Join(t.TempDir(), "missing"), discardLogger())

	if s.Available() {
		t.Error("Available() = true for a missing ADC file")
	}
	_, err := s.ReadSample(false, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("ReadSample() error = %v, want ErrUnavailable", err)
	}
}

func TestLightLevelGarbageValue(t *testing.T) {
	path := writeADCFile(t, "not a number")
	s := newLightLevel(path, discardLogger())

	if _, err := s.ReadSample(false, nil); err == nil {
		t.Error("ReadSample() accepted a non-numeric ADC value")
	}
}

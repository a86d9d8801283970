package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	first := GetLogger("sensor-test")
	second := GetLogger("sensor-test")

	if first != second {
		t.Error("GetLogger returned different instances for the same module")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"ERROR", slog.LevelError, true},
		{"verbose", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got := parseLevel(tt.in)
		if tt.ok {
			if got == nil || *got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		} else if got != nil {
			t.Errorf("parseLevel(%q) = %v, want nil", tt.in, *got)
		}
	}
}

func TestInitializeSetsModuleLevels(t *testing.T) {
	// Module logger created before Initialize still picks up its level.
	logger := GetLogger("relay-test")
	_ = logger

	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"relay-test": "debug"},
	})

	levelVar, exists := moduleLevelVars["relay-test"]
	if !exists {
		t.Fatal("no level var registered for the module")
	}
	if levelVar.Level() != slog.LevelDebug {
		t.Errorf("module level = %v, want debug", levelVar.Level())
	}
}

type recordingHandler struct {
	records []slog.Record
	level   slog.Level
}

func (h *recordingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandlerFansOut(t *testing.T) {
	a := &recordingHandler{level: slog.LevelInfo}
	b := &recordingHandler{level: slog.LevelError}
	logger := slog.New(newMultiHandler(a, b))

	logger.Info("hello")
	logger.Error("broken")

	if len(a.records) != 2 {
		t.Errorf("info-level handler saw %d records, want 2", len(a.records))
	}
	if len(b.records) != 1 {
		t.Errorf("error-level handler saw %d records, want 1", len(b.records))
	}
}

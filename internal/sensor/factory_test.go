package sensor

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jjfalling/indicator-checker/internal/config"
)

func TestNewSensorKinds(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		sensorType string
		wantKind   Kind
	}{
		{config.SensorLightLevel, LightLevel},
		{config.SensorSpectral, SpectralSix},
		{config.SensorColor, ColorThree},
	}

	for _, tt := range tests {
		t.Run(tt.sensorType, func(t *testing.T) {
			s, err := New(config.Settings{SensorType: tt.sensorType}, logger)
			if err != nil {
				t.Fatalf("New() returned error: %v", err)
			}
			if s.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", s.Kind(), tt.wantKind)
			}
		})
	}
}

func TestNewSensorInvalidType(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(config.Settings{SensorType: "thermal"}, logger)
	if !errors.Is(err, ErrInvalidSensor) {
		t.Errorf("New() error = %v, want ErrInvalidSensor", err)
	}
}

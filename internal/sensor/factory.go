package sensor

import (
	"fmt"
	"log/slog"

	"github.com/jjfalling/indicator-checker/internal/config"
)

// New builds the configured sensor backend. The sensor-type string is
// resolved here, once at startup; nothing downstream dispatches on it.
func New(cfg config.Settings, logger *slog.Logger) (Sensor, error) {
	switch cfg.SensorType {
	case config.SensorLightLevel:
		return newLightLevel(cfg.ADCPath, logger), nil
	case config.SensorSpectral:
		return newSpectral(cfg.I2CBus, logger), nil
	case config.SensorColor:
		return newColor(cfg.I2CBus, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSensor, cfg.SensorType)
	}
}

package sensor

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// TCS34725 I2C address and registers. Every register access sets the command
// bit; multi-byte reads auto-increment.
const (
	tcs34725Addr = 0x29

	tcs34725Cmd = 0x80

	tcs34725EnableReg = 0x00
	tcs34725ATimeReg  = 0x01
	tcs34725IDReg     = 0x12
	tcs34725RDataReg  = 0x16 // R, G, B pairs follow, little endian

	tcs34725PowerOn   = 0x01
	tcs34725ADCEnable = 0x02

	// 154 ms integration time.
	tcs34725ATime = 0xC0
)

var colorChannels = []string{"Red", "Green", "Blue"}

// color drives the TCS34725 RGB sensor over I2C. Reads are synchronous; the
// sensor free-runs once the ADC is enabled.
type color struct {
	bus       i2c.BusCloser
	dev       *i2c.Dev
	available bool
	logger    *slog.Logger
}

func newColor(busName string, logger *slog.Logger) *color {
	s := &color{logger: logger}

	bus, err := i2creg.Open(busName)
	if err != nil {
		logger.Warn("Failed to open I2C bus", "bus", busName, "error", err)
		return s
	}
	s.bus = bus
	s.dev = &i2c.Dev{Addr: tcs34725Addr, Bus: bus}

	var id [1]byte
	if err := s.dev.Tx([]byte{tcs34725Cmd | tcs34725IDReg}, id[:]); err != nil {
		logger.Warn("TCS34725 not detected", "bus", busName, "error", err)
		return s
	}
	if id[0] != 0x44 && id[0] != 0x4D {
		logger.Warn("TCS34725 not detected", "bus", busName, "id", id[0])
		return s
	}

	if err := s.dev.Tx([]byte{tcs34725Cmd | tcs34725ATimeReg, tcs34725ATime}, nil); err != nil {
		logger.Warn("TCS34725 configuration failed", "error", err)
		return s
	}
	if err := s.dev.Tx([]byte{tcs34725Cmd | tcs34725EnableReg, tcs34725PowerOn}, nil); err != nil {
		logger.Warn("TCS34725 power-on failed", "error", err)
		return s
	}
	time.Sleep(3 * time.Millisecond)
	if err := s.dev.Tx([]byte{tcs34725Cmd | tcs34725EnableReg, tcs34725PowerOn | tcs34725ADCEnable}, nil); err != nil {
		logger.Warn("TCS34725 ADC enable failed", "error", err)
		return s
	}

	s.available = true
	logger.Info("Color sensor ready", "bus", busName)
	return s
}

func (s *color) Kind() Kind { return ColorThree }

func (s *color) Channels() []string { return colorChannels }

func (s *color) Available() bool { return s.available }

// ReadSample reads the current R, G and B channel values.
func (s *color) ReadSample(verbose bool, echo io.Writer) (Sample, error) {
	if !s.available {
		return Sample{}, fmt.Errorf("%s %w", ColorThree, ErrUnavailable)
	}

	var buf [6]byte
	if err := s.dev.Tx([]byte{tcs34725Cmd | tcs34725RDataReg}, buf[:]); err != nil {
		return Sample{}, fmt.Errorf("%s %w", ColorThree, ErrUnavailable)
	}

	sample := Sample{Count: 3}
	for ch := 0; ch < 3; ch++ {
		sample.Values[ch] = int(buf[2*ch]) | int(buf[2*ch+1])<<8
	}

	if verbose {
		echoSample(echo, sample, colorChannels)
	}
	return sample, nil
}

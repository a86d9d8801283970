package sensor

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// AS726x I2C address and physical registers. The device exposes its real
// register file through a virtual-register handshake: poll STATUS, write the
// virtual address to WRITE, poll STATUS again, read the value from READ.
const (
	as726xAddr = 0x49

	as726xStatusReg = 0x00
	as726xWriteReg  = 0x01
	as726xReadReg   = 0x02

	as726xTxValid = 0x02
	as726xRxValid = 0x01

	// Virtual registers.
	as726xHWVersion    = 0x00
	as726xControlSetup = 0x04
	as726xChannelBase  = 0x08 // six 16-bit big-endian raw channels, V..R

	as726xDeviceType = 0x40

	// Control setup bits.
	as726xDataRdy = 0x02
	// Continuous measurement of all six channels (BANK mode 2), gain 16x.
	as726xModeContinuous = 0x28

	// Handshake polls are quick; a stuck bus gives up fast.
	handshakePollLimit    = 300
	handshakePollInterval = time.Millisecond
)

// Data-ready poll budget: 10000 polls at 5 ms spacing, roughly 50 seconds.
// This bounds the wait when the sensor hangs instead of blocking forever.
const (
	dataReadyPollLimit    = 10000
	dataReadyPollInterval = 5 * time.Millisecond
)

var spectralChannels = []string{"Violet", "Blue", "Green", "Yellow", "Orange", "Red"}

// spectral drives the AS726x over I2C.
type spectral struct {
	bus       i2c.BusCloser
	dev       *i2c.Dev
	available bool
	logger    *slog.Logger
}

func newSpectral(busName string, logger *slog.Logger) *spectral {
	s := &spectral{logger: logger}

	bus, err := i2creg.Open(busName)
	if err != nil {
		logger.Warn("Failed to open I2C bus", "bus", busName, "error", err)
		return s
	}
	s.bus = bus
	s.dev = &i2c.Dev{Addr: as726xAddr, Bus: bus}

	hw, err := s.vregRead(as726xHWVersion)
	if err != nil || hw != as726xDeviceType {
		logger.Warn("AS726x not detected", "bus", busName, "hw_version", hw, "error", err)
		return s
	}
	if err := s.vregWrite(as726xControlSetup, as726xModeContinuous); err != nil {
		logger.Warn("AS726x configuration failed", "error", err)
		return s
	}

	s.available = true
	logger.Info("Spectral sensor ready", "bus", busName)
	return s
}

func (s *spectral) Kind() Kind { return SpectralSix }

func (s *spectral) Channels() []string { return spectralChannels }

func (s *spectral) Available() bool { return s.available }

// ReadSample waits for the sensor's DATA_RDY flag within the bounded poll
// budget, then reads the six raw channels.
func (s *spectral) ReadSample(verbose bool, echo io.Writer) (Sample, error) {
	if !s.available {
		return Sample{}, fmt.Errorf("%s %w", SpectralSix, ErrUnavailable)
	}

	ready := false
	for i := 0; i < dataReadyPollLimit; i++ {
		ctrl, err := s.vregRead(as726xControlSetup)
		if err != nil {
			return Sample{}, fmt.Errorf("%s %w", SpectralSix, ErrTimeout)
		}
		if ctrl&as726xDataRdy != 0 {
			ready = true
			break
		}
		time.Sleep(dataReadyPollInterval)
	}
	if !ready {
		return Sample{}, fmt.Errorf("%s %w", SpectralSix, ErrTimeout)
	}

	sample := Sample{Count: 6}
	for ch := 0; ch < 6; ch++ {
		hi, err := s.vregRead(byte(as726xChannelBase + 2*ch))
		if err != nil {
			return Sample{}, fmt.Errorf("%s %w", SpectralSix, ErrTimeout)
		}
		lo, err := s.vregRead(byte(as726xChannelBase + 2*ch + 1))
		if err != nil {
			return Sample{}, fmt.Errorf("%s %w", SpectralSix, ErrTimeout)
		}
		sample.Values[ch] = int(hi)<<8 | int(lo)
	}

	// Re-arm continuous measurement; this clears DATA_RDY.
	if err := s.vregWrite(as726xControlSetup, as726xModeContinuous); err != nil {
		return Sample{}, fmt.Errorf("%s %w", SpectralSix, ErrTimeout)
	}

	if verbose {
		echoSample(echo, sample, spectralChannels)
	}
	return sample, nil
}

// vregRead reads one virtual register through the WRITE/READ handshake.
func (s *spectral) vregRead(vreg byte) (byte, error) {
	if err := s.waitStatus(as726xTxValid, 0); err != nil {
		return 0, err
	}
	if err := s.dev.Tx([]byte{as726xWriteReg, vreg}, nil); err != nil {
		return 0, err
	}
	if err := s.waitStatus(as726xRxValid, as726xRxValid); err != nil {
		return 0, err
	}
	var buf [1]byte
	if err := s.dev.Tx([]byte{as726xReadReg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// vregWrite writes one virtual register. Bit 7 of the virtual address marks
// a write.
func (s *spectral) vregWrite(vreg, value byte) error {
	if err := s.waitStatus(as726xTxValid, 0); err != nil {
		return err
	}
	if err := s.dev.Tx([]byte{as726xWriteReg, vreg | 0x80}, nil); err != nil {
		return err
	}
	if err := s.waitStatus(as726xTxValid, 0); err != nil {
		return err
	}
	return s.dev.Tx([]byte{as726xWriteReg, value}, nil)
}

// waitStatus polls the status register until masked bits equal want.
func (s *spectral) waitStatus(mask, want byte) error {
	for i := 0; i < handshakePollLimit; i++ {
		var buf [1]byte
		if err := s.dev.Tx([]byte{as726xStatusReg}, buf[:]); err != nil {
			return err
		}
		if buf[0]&mask == want {
			return nil
		}
		time.Sleep(handshakePollInterval)
	}
	return fmt.Errorf("status register stuck waiting for mask %#02x", mask)
}

// Package serialport opens the serial devices both ends of the protocol use.
package serialport

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the original firmware's port speed. Higher bauds
// showed response/read races with some callers, so the default stays
// conservative.
const DefaultBaudRate = 9600

// Open opens the serial device in 8N1 mode at the given baud rate.
func Open(device string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}
	return port, nil
}

// Package indicatorclient is the host-side client for the indicator checker's
// serial command protocol. It writes one command per line-less request and
// reads the response up to the 0x04 end-of-transmission byte.
package indicatorclient

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/jjfalling/indicator-checker/internal/serialport"
)

// EOT marks the end of every response.
const EOT byte = 0x04

// stripCutset removes line endings and the terminator from a raw response,
// mirroring what existing callers strip.
const stripCutset = "\r\n\x04"

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Client talks to an indicator checker over a byte channel.
type Client struct {
	rw     io.ReadWriteCloser
	reader *bufio.Reader
}

// Option configures Dial.
type Option func(*dialOptions)

type dialOptions struct {
	baud        int
	settleDelay time.Duration
	readTimeout time.Duration
}

// WithBaud overrides the default baud rate.
func WithBaud(baud int) Option {
	return func(o *dialOptions) { o.baud = baud }
}

// WithSettleDelay waits after opening the port before the first command.
// Some microcontrollers reset on serial connect and need a moment to boot.
func WithSettleDelay(d time.Duration) Option {
	return func(o *dialOptions) { o.settleDelay = d }
}

// WithReadTimeout bounds each response read. It must exceed the controller's
// RebootDelay or Reboot responses will be cut short.
func WithReadTimeout(d time.Duration) Option {
	return func(o *dialOptions) { o.readTimeout = d }
}

// Dial opens the serial device and returns a client.
func Dial(device string, opts ...Option) (*Client, error) {
	o := dialOptions{baud: serialport.DefaultBaudRate}
	for _, opt := range opts {
		opt(&o)
	}

	port, err := serialport.Open(device, o.baud)
	if err != nil {
		return nil, err
	}
	if o.readTimeout > 0 {
		if err := port.SetReadTimeout(o.readTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
	}
	if o.settleDelay > 0 {
		time.Sleep(o.settleDelay)
	}
	return NewClient(port), nil
}

// NewClient wraps an already-open channel. Tests use it with an in-memory
// pipe.
func NewClient(rw io.ReadWriteCloser) *Client {
	return &Client{rw: rw, reader: bufio.NewReader(rw)}
}

// Close closes the underlying channel.
func (c *Client) Close() error {
	return c.rw.Close()
}

// Send writes a raw command and returns the response with line endings and
// the terminator stripped.
func (c *Client) Send(cmd string) (string, error) {
	if _, err := c.rw.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("failed to send %q: %w", cmd, err)
	}
	raw, err := c.reader.ReadString(EOT)
	if err != nil {
		return "", fmt.Errorf("failed to read response to %q: %w", cmd, err)
	}
	return strings.Trim(raw, stripCutset), nil
}

// Status asks for the indicator state.
func (c *Client) Status() (string, error) {
	return c.Send("status")
}

// StatusVerbose asks for the indicator state with per-sample echo.
func (c *Client) StatusVerbose() (string, error) {
	return c.Send("status verbose")
}

// Settings returns the controller's settings dump.
func (c *Client) Settings() (string, error) {
	return c.Send("settings")
}

// Ping checks the controller is responding.
func (c *Client) Ping() error {
	resp, err := c.Send("ping")
	if err != nil {
		return err
	}
	if !strings.Contains(resp, "pong") {
		return fmt.Errorf("unexpected ping response %q", resp)
	}
	return nil
}

// Version returns the semver reported by the controller, extracted from the
// version banner.
func (c *Client) Version() (string, error) {
	resp, err := c.Send("version")
	if err != nil {
		return "", err
	}
	v := versionPattern.FindString(resp)
	if v == "" {
		return "", fmt.Errorf("no valid firmware version in %q", resp)
	}
	return v, nil
}

// Reboot power cycles the observed device and verifies completion. The read
// blocks for the whole reboot duration, so the port's read timeout must
// exceed the controller's RebootDelay.
func (c *Client) Reboot() error {
	resp, err := c.Send("reboot")
	if err != nil {
		return err
	}
	if !strings.Contains(resp, "Reboot Completed") {
		return fmt.Errorf("device did not restart correctly, response: %s", resp)
	}
	return nil
}

// Reset asks the controller to reset itself. The controller goes away after
// acknowledging, so only the acknowledgement is read.
func (c *Client) Reset() error {
	_, err := c.Send("reset")
	return err
}

// Package command implements the line-oriented serial command protocol.
package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jjfalling/indicator-checker/internal/events"
	"github.com/jjfalling/indicator-checker/internal/relay"
	"github.com/jjfalling/indicator-checker/internal/station"
	"github.com/jjfalling/indicator-checker/internal/version"
)

// EOT terminates every response, regardless of command, so callers can detect
// completion without parsing content.
const EOT byte = 0x04

// normalizeCutset is the exact character set trimmed from both ends of a
// command line. Defined explicitly instead of relying on locale-dependent
// whitespace classification.
const normalizeCutset = "\r\n \t"

// maxLineLength bounds one command line. Anything longer is noise on the
// serial line, not a command.
const maxLineLength = 64 * 1024

const unknownReply = "Unknown command. Send help for the command list."

// Normalize lowercases a raw input line and trims line endings, spaces and
// tabs from both ends.
func Normalize(line string) string {
	return strings.Trim(strings.ToLower(line), normalizeCutset)
}

// Dispatcher reads one command line at a time and runs it to completion
// before accepting the next. There are two states: waiting for a line, and
// processing one; processing always re-enters waiting after the EOT byte.
type Dispatcher struct {
	station *station.Station
	relay   *relay.Controller
	bus     *events.Bus
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over the given station and relay.
func NewDispatcher(st *station.Station, rc *relay.Controller, bus *events.Bus, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{station: st, relay: rc, bus: bus, logger: logger}
}

// Serve runs the command loop on rw until the channel closes or ctx is
// cancelled. The read itself blocks; cancellation is observed between
// commands, so the caller should close the channel to unblock a pending
// read on shutdown. Input errors get a response like any bad command; only
// channel failures end the loop.
func (d *Dispatcher) Serve(ctx context.Context, rw io.ReadWriter) error {
	reader := bufio.NewReaderSize(rw, maxLineLength)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadSlice('\n')
		switch {
		case err == nil:
			d.Handle(string(line), rw)
		case errors.Is(err, bufio.ErrBufferFull):
			// Oversized line. Discard up to the next newline and answer
			// like any unrecognized command so the caller still sees an
			// EOT instead of a dead channel.
			d.logger.Warn("Discarding oversized input line")
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = reader.ReadSlice('\n')
			}
			writeLine(rw, unknownReply)
			_, _ = rw.Write([]byte{EOT})
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		case errors.Is(err, io.EOF):
			if len(line) > 0 {
				d.Handle(string(line), rw)
			}
			return nil
		default:
			return err
		}
	}
}

// Handle processes one raw input line and writes the full response,
// including the trailing EOT byte, to w.
func (d *Dispatcher) Handle(raw string, w io.Writer) {
	line := Normalize(raw)
	d.logger.Debug("Handling command", "command", line)

	var deferredReset bool
	switch {
	case strings.HasPrefix(line, "status") && strings.HasSuffix(line, "verbose"):
		d.handleStatus(w, true)
	case strings.HasPrefix(line, "status"):
		d.handleStatus(w, false)
	case line == "reboot":
		d.handleReboot(w)
	case line == "reset":
		writeLine(w, "Resetting controller")
		deferredReset = true
	case line == "help":
		for _, l := range helpLines {
			writeLine(w, l)
		}
	case line == "settings":
		for _, l := range d.station.Settings().Lines() {
			writeLine(w, l)
		}
	case line == "ping":
		writeLine(w, "pong")
	case line == "version":
		writeLine(w, "Device Indicator Checker v"+version.String())
	default:
		writeLine(w, unknownReply)
	}

	// Every response ends with the end-of-transmission marker.
	_, _ = w.Write([]byte{EOT})

	if deferredReset {
		// The response must be on the wire before the reset line fires;
		// on real hardware this process does not come back from it.
		d.handleReset()
	}
}

func (d *Dispatcher) handleStatus(w io.Writer, verbose bool) {
	result, err := d.station.Check(verbose, w)
	if err != nil {
		writeLine(w, "Error: "+err.Error())
		return
	}
	for _, l := range result.Lines(d.station.Channels()) {
		writeLine(w, l)
	}
}

func (d *Dispatcher) handleReboot(w io.Writer) {
	cfg := d.station.Settings()
	if err := d.relay.Reboot(cfg.RebootDelay, w); err != nil {
		writeLine(w, "Error: "+err.Error())
		return
	}
	d.bus.Publish(events.RebootEvent{
		DurationSeconds: cfg.RebootDelay,
		Timestamp:       time.Now().Format(time.RFC3339),
	})
}

func (d *Dispatcher) handleReset() {
	cfg := d.station.Settings()
	d.bus.Publish(events.ResetEvent{Timestamp: time.Now().Format(time.RFC3339)})
	if err := d.relay.Reset(cfg.ResetSettleDelay); err != nil {
		d.logger.Error("Reset failed", "error", err)
	}
}

func writeLine(w io.Writer, line string) {
	fmt.Fprintf(w, "%s\r\n", line)
}

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"periph.io/x/host/v3"

	"github.com/jjfalling/indicator-checker/cmd"
	"github.com/jjfalling/indicator-checker/internal/api"
	"github.com/jjfalling/indicator-checker/internal/command"
	"github.com/jjfalling/indicator-checker/internal/config"
	"github.com/jjfalling/indicator-checker/internal/events"
	"github.com/jjfalling/indicator-checker/internal/logging"
	"github.com/jjfalling/indicator-checker/internal/metrics"
	"github.com/jjfalling/indicator-checker/internal/relay"
	"github.com/jjfalling/indicator-checker/internal/sensor"
	"github.com/jjfalling/indicator-checker/internal/serialport"
	"github.com/jjfalling/indicator-checker/internal/station"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"indicator.toml"`

	// Serial channel settings
	Device string `help:"Serial device serving the command protocol" default:"/dev/ttyGS0" toml:"serial.device" env:"SERIAL_DEVICE"`
	Baud   int    `help:"Serial baud rate" default:"9600" toml:"serial.baud" env:"SERIAL_BAUD"`
	Stdio  bool   `help:"Serve the protocol on stdin/stdout instead of a serial device" default:"false" toml:"serial.stdio" env:"SERIAL_STDIO"`

	// Sensor settings
	SensorType string `help:"Sensor backend (lightlevel, spectral, color)" default:"lightlevel" toml:"sensor.type" env:"SENSOR_TYPE"`
	I2CBus     string `help:"I2C bus for the spectral and color backends" default:"1" toml:"sensor.i2c_bus" env:"SENSOR_I2C_BUS"`
	ADCPath    string `help:"IIO raw-value file for the light-level backend" default:"/sys/bus/iio/devices/iio:device0/in_voltage0_raw" toml:"sensor.adc_path" env:"SENSOR_ADC_PATH"`

	// Pin assignments
	RelayPin string `help:"GPIO pin driving the power relay" default:"GPIO17" toml:"pins.relay" env:"RELAY_PIN"`
	ResetPin string `help:"GPIO pin of the controller reset line" default:"GPIO27" toml:"pins.reset" env:"RESET_PIN"`

	// Classification settings
	BlinkDiff         int `help:"Minimum sample spread to classify as blinking" default:"140" toml:"classify.blink_diff" env:"BLINK_DIFF"`
	LowerLimit        int `help:"Intensity below which the indicator is off" default:"180" toml:"classify.lower_limit" env:"LOWER_LIMIT"`
	NumberOfChecks    int `help:"Samples per classification (minimum 2)" default:"10" toml:"classify.number_of_checks" env:"NUMBER_OF_CHECKS"`
	InterCheckDelayMs int `help:"Milliseconds between samples" default:"250" toml:"classify.inter_check_delay_ms" env:"INTER_CHECK_DELAY_MS"`

	// Action settings
	RebootDelaySec int `help:"Seconds the relay stays high during a reboot" default:"15" toml:"actions.reboot_delay_seconds" env:"REBOOT_DELAY_SECONDS"`
	ResetSettleMs  int `help:"Milliseconds before the reset line is pulled" default:"500" toml:"actions.reset_settle_ms" env:"RESET_SETTLE_MS"`

	// HTTP settings
	HTTPEnabled    bool   `help:"Enable the read-only HTTP status API" default:"false" toml:"http.enabled" env:"HTTP_ENABLED"`
	HTTPPort       string `help:"HTTP API listen address" default:":8093" toml:"http.port" env:"HTTP_PORT"`
	MetricsEnabled bool   `help:"Expose Prometheus metrics on the HTTP API" default:"true" toml:"http.metrics_enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSensor  string `help:"Sensor logging level" default:"info" toml:"logging.sensor" env:"LOGGING_SENSOR"`
	LoggingCommand string `help:"Command dispatcher logging level" default:"info" toml:"logging.command" env:"LOGGING_COMMAND"`
	LoggingRelay   string `help:"Relay logging level" default:"info" toml:"logging.relay" env:"LOGGING_RELAY"`
	LoggingAPI     string `help:"HTTP API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// stdioChannel serves the protocol on the process's own stdin/stdout for
// bench testing without a serial device.
type stdioChannel struct {
	io.Reader
	io.Writer
}

func (stdioChannel) Close() error { return nil }

func main() {
	// Declared before New so the callback can see which flags were set on
	// the command line; the callback only runs inside cli.Run().
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.Load(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"sensor":  opts.LoggingSensor,
				"command": opts.LoggingCommand,
				"relay":   opts.LoggingRelay,
				"api":     opts.LoggingAPI,
			},
		})
		logger := logging.GetLogger("main")

		settings := config.Settings{
			SensorType:       opts.SensorType,
			RelayPin:         opts.RelayPin,
			ResetPin:         opts.ResetPin,
			I2CBus:           opts.I2CBus,
			ADCPath:          opts.ADCPath,
			BlinkDiff:        opts.BlinkDiff,
			LowerLimit:       opts.LowerLimit,
			NumberOfChecks:   opts.NumberOfChecks,
			InterCheckDelay:  time.Duration(opts.InterCheckDelayMs) * time.Millisecond,
			RebootDelay:      opts.RebootDelaySec,
			ResetSettleDelay: time.Duration(opts.ResetSettleMs) * time.Millisecond,
		}
		if err := settings.Validate(); err != nil {
			logger.Error("Invalid configuration", "error", err)
			os.Exit(1)
		}

		// GPIO and I2C registries need the periph host drivers loaded.
		if _, err := host.Init(); err != nil {
			logger.Warn("Hardware driver init failed", "error", err)
		}

		activeSensor, err := sensor.New(settings, logging.GetLogger("sensor"))
		if err != nil {
			logger.Error("Failed to create sensor", "error", err)
			os.Exit(1)
		}

		relayLogger := logging.GetLogger("relay")
		relayController, err := relay.New(settings.RelayPin, settings.ResetPin, relayLogger)
		if err != nil {
			if !opts.Stdio {
				logger.Error("Failed to set up relay pins", "error", err)
				os.Exit(1)
			}
			logger.Warn("Relay pins unavailable, using loopback pins", "error", err)
			relayController = relay.NewLoopback(relayLogger)
		}

		eventBus := events.New()

		exporter := metrics.NewExporter(logging.GetLogger("metrics"))
		if opts.MetricsEnabled {
			exporter.Start(eventBus)
		}

		checkStation := station.New(settings, activeSensor, eventBus, logging.GetLogger("station"))
		dispatcher := command.NewDispatcher(checkStation, relayController, eventBus, logging.GetLogger("command"))

		var apiServer *api.Server
		if opts.HTTPEnabled {
			apiOpts := &api.Options{Station: checkStation}
			if opts.MetricsEnabled {
				apiOpts.MetricsHandler = exporter.Handler()
			}
			apiServer = api.NewServer(apiOpts)
		}

		ctx, cancel := context.WithCancel(context.Background())
		var channel io.ReadWriteCloser

		hooks.OnStart(func() {
			if apiServer != nil {
				go func() {
					if startErr := apiServer.Start(opts.HTTPPort); startErr != nil &&
						!errors.Is(startErr, http.ErrServerClosed) {
						logger.Error("HTTP API failed", "error", startErr)
					}
				}()
			}

			if opts.Stdio {
				logger.Info("Serving command protocol on stdio")
				channel = stdioChannel{Reader: os.Stdin, Writer: os.Stdout}
			} else {
				port, openErr := serialport.Open(opts.Device, opts.Baud)
				if openErr != nil {
					logger.Error("Failed to open serial device", "error", openErr)
					os.Exit(1)
				}
				logger.Info("Serving command protocol", "device", opts.Device, "baud", opts.Baud)
				channel = port
			}

			if serveErr := dispatcher.Serve(ctx, channel); serveErr != nil &&
				!errors.Is(serveErr, context.Canceled) {
				logger.Error("Command loop ended", "error", serveErr)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			if channel != nil {
				// Unblocks a pending read in the command loop.
				_ = channel.Close()
			}
			if apiServer != nil {
				if stopErr := apiServer.Stop(); stopErr != nil {
					logger.Error("Error stopping HTTP API", "error", stopErr)
				}
			}
			exporter.Stop()
		})
	})

	// Host-side subcommands
	cli.Root().AddCommand(cmd.CreateWatchdogCmd())
	cli.Root().AddCommand(cmd.CreateSendCmd())

	cli.Run()
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/jjfalling/indicator-checker/internal/config"
	"github.com/jjfalling/indicator-checker/internal/logging"
	"github.com/jjfalling/indicator-checker/pkg/indicatorclient"
)

// minFirmwareVersion is the oldest controller firmware the watchdog flow is
// known to work against.
const minFirmwareVersion = "1.0.2"

// CreateWatchdogCmd creates the watchdog command: the host-side internet
// health check that power cycles the device through an indicator checker
// when all external hosts stop answering.
func CreateWatchdogCmd() *cobra.Command {
	var (
		device           string
		baud             int
		settleDelay      time.Duration
		readTimeout      time.Duration
		hosts            []string
		hostsFile        string
		gateway          string
		iface            string
		restartTimeout   time.Duration
		postRestartDelay time.Duration
		interval         time.Duration
		logJSON          bool
	)

	cmd := &cobra.Command{
		Use:   "watchdog",
		Short: "Run the internet health check",
		Long: `Pings a set of external hosts and, when none answer, power cycles the ` +
			`observed device through the indicator checker's serial protocol, then waits ` +
			`for the indicator to come back on. Run it once from cron, or pass --interval ` +
			`to loop.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			loggingConfig := logging.Config{Level: "info", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("watchdog")

			client, err := indicatorclient.Dial(device,
				indicatorclient.WithBaud(baud),
				indicatorclient.WithSettleDelay(settleDelay),
				indicatorclient.WithReadTimeout(readTimeout),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := checkFirmwareFloor(client); err != nil {
				return err
			}

			hostList := newHostList(hosts)
			if hostsFile != "" {
				loaded, loadErr := loadHostsFile(hostsFile)
				if loadErr != nil {
					return loadErr
				}
				hostList.set(loaded)

				watcher := config.NewWatcher(hostsFile, loadHostsFile, logger)
				watcher.OnReload(func(fresh []string) {
					logger.Info("Host list reloaded", "hosts", len(fresh))
					hostList.set(fresh)
				})
				if watchErr := watcher.Start(); watchErr != nil {
					logger.Warn("Failed to watch hosts file, edits need a restart", "error", watchErr)
				} else {
					defer func() { _ = watcher.Stop() }()
				}
			}
			if len(hostList.get()) == 0 {
				return fmt.Errorf("no hosts to check; pass --hosts or --hosts-file")
			}

			wd := &watchdog{
				client:           client,
				logger:           logger,
				gateway:          gateway,
				iface:            iface,
				restartTimeout:   restartTimeout,
				postRestartDelay: postRestartDelay,
				statusPoll:       10 * time.Second,
				ping:             pingHost,
			}

			for {
				wd.runOnce(hostList.get())
				if interval <= 0 {
					return nil
				}
				time.Sleep(interval)
			}
		},
	}

	cmd.Flags().StringVar(&device, "device", "/dev/ttyACM0", "Serial device of the indicator checker")
	cmd.Flags().IntVar(&baud, "baud", 9600, "Serial baud rate")
	cmd.Flags().DurationVar(&settleDelay, "settle-delay", 3*time.Second,
		"Wait after connecting before the first command (controllers that reset on connect)")
	cmd.Flags().DurationVar(&readTimeout, "read-timeout", 60*time.Second,
		"Serial response timeout; must exceed the controller's RebootDelay")
	cmd.Flags().StringSliceVar(&hosts, "hosts", []string{"google.com", "4.2.2.2", "1.1.1.1"},
		"External hosts to ping")
	cmd.Flags().StringVar(&hostsFile, "hosts-file", "", "File with one host per line, watched for edits")
	cmd.Flags().StringVar(&gateway, "gateway", "", "Internal gateway to check before blaming the device")
	cmd.Flags().StringVar(&iface, "interface", "", "Network interface to bounce after a restart")
	cmd.Flags().DurationVar(&restartTimeout, "restart-timeout", 10*time.Minute,
		"How long to wait for the indicator to come back on")
	cmd.Flags().DurationVar(&postRestartDelay, "post-restart-delay", time.Minute,
		"Wait after the restart before polling the indicator (avoids false positives)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Repeat the check at this interval; 0 runs once")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

// watchdog holds the pieces of one health-check run.
type watchdog struct {
	client           *indicatorclient.Client
	logger           *slog.Logger
	gateway          string
	iface            string
	restartTimeout   time.Duration
	postRestartDelay time.Duration
	statusPoll       time.Duration
	ping             func(host string) bool
}

func (wd *watchdog) runOnce(hosts []string) {
	wd.logger.Info("Checking reachability of external hosts", "hosts", len(hosts))
	if anyHostReachable(hosts, wd.ping, wd.logger) {
		wd.logger.Info("At least one external host is reachable, considering internet up")
		return
	}
	wd.logger.Info("All external hosts are unreachable, considering internet down")

	if wd.gateway != "" {
		if !wd.ping(wd.gateway) {
			wd.logger.Info("Internal gateway is down, not restarting the device", "gateway", wd.gateway)
			return
		}
		wd.logger.Info("Internal gateway is reachable", "gateway", wd.gateway)
	}

	wd.logger.Warn("Restarting device, internet is unreachable")
	if err := wd.client.Reboot(); err != nil {
		wd.logger.Error("Device did not restart correctly", "error", err)
		return
	}

	wd.logger.Info("Waiting before polling the indicator", "delay", wd.postRestartDelay)
	time.Sleep(wd.postRestartDelay)

	if wd.waitForIndicator() {
		wd.logger.Info("Device appears to have come back up")
	} else {
		wd.logger.Error("Timeout waiting for the device to come up")
	}

	// Bounce the interface even if the device never came up.
	if wd.iface != "" {
		wd.logger.Info("Bouncing interface", "interface", wd.iface)
		if err := bounceInterface(wd.iface); err != nil {
			wd.logger.Error("Failed to bounce interface", "error", err)
		}
	}
}

// waitForIndicator polls the indicator status until it reads on or the
// restart timeout passes.
func (wd *watchdog) waitForIndicator() bool {
	deadline := time.Now().Add(wd.restartTimeout)
	for time.Now().Before(deadline) {
		status, err := wd.client.Status()
		if err != nil {
			wd.logger.Warn("Status poll failed", "error", err)
		} else {
			wd.logger.Debug("Indicator status", "status", status)
			if strings.Contains(status, "Indicator On") {
				return true
			}
		}
		time.Sleep(wd.statusPoll)
	}
	return false
}

// checkFirmwareFloor verifies the controller firmware is new enough for this
// flow.
func checkFirmwareFloor(client *indicatorclient.Client) error {
	reported, err := client.Version()
	if err != nil {
		return fmt.Errorf("failed to read firmware version: %w", err)
	}
	return compareFirmware(reported, minFirmwareVersion)
}

func compareFirmware(reported, floor string) error {
	got, err := semver.NewVersion(reported)
	if err != nil {
		return fmt.Errorf("invalid firmware version %q: %w", reported, err)
	}
	want := semver.MustParse(floor)
	if got.LessThan(want) {
		return fmt.Errorf("firmware %s is older than the required %s, please update the controller",
			reported, floor)
	}
	return nil
}

// anyHostReachable pings each host until one answers.
func anyHostReachable(hosts []string, ping func(string) bool, logger *slog.Logger) bool {
	for _, host := range hosts {
		up := ping(host)
		logger.Info("Host ping", "host", host, "reachable", up)
		if up {
			return true
		}
	}
	return false
}

// pingHost sends three probes via the system ping.
func pingHost(host string) bool {
	cmd := exec.Command("ping", "-c", "3", host)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

// bounceInterface takes the interface down and back up, then settles.
func bounceInterface(iface string) error {
	if out, err := exec.Command("ifconfig", iface, "down").CombinedOutput(); err != nil {
		return fmt.Errorf("ifconfig down: %w: %s", err, out)
	}
	time.Sleep(10 * time.Second)
	if out, err := exec.Command("ifconfig", iface, "up").CombinedOutput(); err != nil {
		return fmt.Errorf("ifconfig up: %w: %s", err, out)
	}
	time.Sleep(10 * time.Second)
	return nil
}

// loadHostsFile parses a newline-separated host list; blank lines and #
// comments are skipped.
func loadHostsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hosts file: %w", err)
	}
	var hosts []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	return hosts, nil
}

// hostList is a tiny concurrency-safe holder; the file watcher updates it
// from its own goroutine.
type hostList struct {
	mu    sync.RWMutex
	hosts []string
}

func newHostList(hosts []string) *hostList {
	return &hostList{hosts: hosts}
}

func (h *hostList) get() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hosts
}

func (h *hostList) set(hosts []string) {
	h.mu.Lock()
	h.hosts = hosts
	h.mu.Unlock()
}

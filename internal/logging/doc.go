// Package logging provides structured logging with per-module log levels.
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"sensor":  "debug",
//			"command": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("sensor")
//	logger.Info("Sensor ready", "kind", "spectral")
//
// Logs are written to stderr (text or json) and, when journald is present,
// to the systemd journal with SYSLOG_IDENTIFIER=indicatord:
//
//	journalctl -t indicatord -f
//	journalctl -t indicatord MODULE=command
//
// Stdout is never used for logs because serve --stdio mode speaks the
// command protocol on it.
package logging

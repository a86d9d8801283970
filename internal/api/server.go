// Package api exposes a small read-only HTTP surface next to the serial
// protocol: the current indicator state, the settings, the version, and the
// Prometheus metrics endpoint. It is opt-in and off by default.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/jjfalling/indicator-checker/internal/config"
	"github.com/jjfalling/indicator-checker/internal/logging"
	"github.com/jjfalling/indicator-checker/internal/station"
	"github.com/jjfalling/indicator-checker/internal/version"
)

// Options configures the API server.
type Options struct {
	Station        *station.Station
	MetricsHandler http.Handler // optional Prometheus handler
}

// Server serves the HTTP API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	station    *station.Station
	logger     *slog.Logger
}

// StatusResponse is the indicator classification result.
type StatusResponse struct {
	Body struct {
		State  string `json:"state" example:"Indicator On" doc:"Classified indicator state"`
		Spread int    `json:"spread" doc:"Max minus min scalar intensity across the sample window"`
		Min    int    `json:"min" doc:"Minimum scalar intensity in the sample window"`
	}
}

// SettingsResponse is the runtime configuration.
type SettingsResponse struct {
	Body struct {
		SensorType      string `json:"sensor_type" example:"spectral"`
		BlinkDiff       int    `json:"blink_diff"`
		LowerLimit      int    `json:"lower_limit"`
		NumberOfChecks  int    `json:"number_of_checks"`
		InterCheckDelay int    `json:"inter_check_delay_ms"`
		RebootDelay     int    `json:"reboot_delay_seconds"`
	}
}

// VersionResponse is the build metadata.
type VersionResponse struct {
	Body version.Info
}

// NewServer creates the API server and registers its routes.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("Indicator Checker API", version.String())
	humaConfig.Info.Description = "Read-only status API for the device indicator checker"
	humaConfig.Servers = []*huma.Server{}

	s := &Server{
		api:     humago.New(mux, humaConfig),
		mux:     mux,
		station: opts.Station,
		logger:  logging.GetLogger("api"),
	}

	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Classify the indicator",
		Description: "Runs one sampling window against the configured sensor and returns the classification. " +
			"Shares the one-command-at-a-time discipline with the serial channel, so the call can take " +
			"NumberOfChecks * InterCheckDelay to respond.",
		Tags:   []string{"indicator"},
		Errors: []int{503},
	}, func(ctx context.Context, input *struct{}) (*StatusResponse, error) {
		result, err := s.station.Check(false, nil)
		if err != nil {
			return nil, huma.Error503ServiceUnavailable("Classification failed", err)
		}
		resp := &StatusResponse{}
		resp.Body.State = result.State.String()
		resp.Body.Spread = result.Spread
		resp.Body.Min = result.Min
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Get Settings",
		Tags:        []string{"indicator"},
	}, func(ctx context.Context, input *struct{}) (*SettingsResponse, error) {
		return settingsResponse(s.station.Settings()), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Get Version",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*VersionResponse, error) {
		return &VersionResponse{Body: version.Get()}, nil
	})
}

func settingsResponse(cfg config.Settings) *SettingsResponse {
	resp := &SettingsResponse{}
	resp.Body.SensorType = cfg.SensorType
	resp.Body.BlinkDiff = cfg.BlinkDiff
	resp.Body.LowerLimit = cfg.LowerLimit
	resp.Body.NumberOfChecks = cfg.NumberOfChecks
	resp.Body.InterCheckDelay = int(cfg.InterCheckDelay.Milliseconds())
	resp.Body.RebootDelay = cfg.RebootDelay
	return resp
}

// Start begins serving on the given address. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("HTTP API listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

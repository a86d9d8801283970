package metrics

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jjfalling/indicator-checker/internal/events"
)

func newTestExporter() *Exporter {
	return NewExporter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// scrape serves one metrics request and returns the text exposition.
func scrape(t *testing.T, e *Exporter) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("metrics endpoint returned %d", rec.Code)
	}
	return rec.Body.String()
}

// waitFor polls the scrape output until the condition holds; the event bus
// delivers asynchronously.
func waitFor(t *testing.T, e *Exporter, substr string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var body string
	for time.Now().Before(deadline) {
		body = scrape(t, e)
		if strings.Contains(body, substr) {
			return body
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("metrics never contained %q:\n%s", substr, body)
	return ""
}

func TestExporterInitialState(t *testing.T) {
	e := newTestExporter()

	body := scrape(t, e)
	if !strings.Contains(body, "indicator_state 0") {
		t.Errorf("initial metrics missing indicator_state 0:\n%s", body)
	}
}

func TestExporterTracksStatusEvents(t *testing.T) {
	e := newTestExporter()
	bus := events.New()
	e.Start(bus)
	defer e.Stop()

	bus.Publish(events.StatusEvent{State: "Indicator Blinking", Spread: 240, Min: 10})

	// Bus delivery is asynchronous, so each line gets its own wait; one
	// scrape can interleave with the handler mid-update.
	waitFor(t, e, `indicator_classifications_total{state="Indicator Blinking"} 1`)
	waitFor(t, e, "indicator_sample_spread 240")
	waitFor(t, e, "indicator_state 2")
}

func TestExporterTracksActionEvents(t *testing.T) {
	e := newTestExporter()
	bus := events.New()
	e.Start(bus)
	defer e.Stop()

	bus.Publish(events.RebootEvent{DurationSeconds: 15})
	bus.Publish(events.ResetEvent{})
	bus.Publish(events.SensorErrorEvent{Sensor: "AS726x", Error: "AS726x sensor is not returning data"})

	waitFor(t, e, "indicator_reboots_total 1")
	waitFor(t, e, "indicator_resets_total 1")
	waitFor(t, e, `indicator_sensor_errors_total{sensor="AS726x"} 1`)
}

func TestExporterStopUnsubscribes(t *testing.T) {
	e := newTestExporter()
	bus := events.New()
	e.Start(bus)
	e.Stop()

	bus.Publish(events.RebootEvent{DurationSeconds: 15})
	time.Sleep(50 * time.Millisecond)

	if body := scrape(t, e); strings.Contains(body, "indicator_reboots_total 1") {
		t.Errorf("stopped exporter still counted an event:\n%s", body)
	}
}

package events

// Event type constants for kelindar/event.
const (
	TypeStatus uint32 = iota + 1
	TypeSensorError
	TypeReboot
	TypeReset
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StatusEvent is published after every successful classification.
type StatusEvent struct {
	State     string `json:"state" example:"Indicator On" doc:"Classified indicator state"`
	Spread    int    `json:"spread" doc:"Max minus min scalar intensity across the sample window"`
	Min       int    `json:"min" doc:"Minimum scalar intensity in the sample window"`
	Timestamp string `json:"timestamp" example:"2026-08-29T10:30:00Z" doc:"Classification timestamp"`
}

// Type returns the event type identifier for StatusEvent.
func (e StatusEvent) Type() uint32 { return TypeStatus }

// SensorErrorEvent is published when a classification aborts on a sensor error.
type SensorErrorEvent struct {
	Sensor    string `json:"sensor" example:"AS726x" doc:"Sensor backend name"`
	Error     string `json:"error" doc:"Error description"`
	Timestamp string `json:"timestamp" doc:"Error timestamp"`
}

// Type returns the event type identifier for SensorErrorEvent.
func (e SensorErrorEvent) Type() uint32 { return TypeSensorError }

// RebootEvent is published after a completed reboot action.
type RebootEvent struct {
	DurationSeconds int    `json:"duration_seconds" doc:"Seconds the relay was held high"`
	Timestamp       string `json:"timestamp" doc:"Completion timestamp"`
}

// Type returns the event type identifier for RebootEvent.
func (e RebootEvent) Type() uint32 { return TypeReboot }

// ResetEvent is published just before the controller reset line is pulled.
type ResetEvent struct {
	Timestamp string `json:"timestamp" doc:"Reset timestamp"`
}

// Type returns the event type identifier for ResetEvent.
func (e ResetEvent) Type() uint32 { return TypeReset }

package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for in-process event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(StatusEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event needs the concrete type, so switch on it here.
	switch e := ev.(type) {
	case StatusEvent:
		event.Publish(b.dispatcher, e)
	case SensorErrorEvent:
		event.Publish(b.dispatcher, e)
	case RebootEvent:
		event.Publish(b.dispatcher, e)
	case ResetEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function; the handler's
// parameter type selects which events it receives. Returns an unsubscribe
// function.
// Usage: unsub := bus.Subscribe(func(e StatusEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SensorErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RebootEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ResetEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

package events

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()

	received := make(chan StatusEvent, 1)
	unsub := bus.Subscribe(func(e StatusEvent) { received <- e })
	defer unsub()

	bus.Publish(StatusEvent{State: "Indicator On", Spread: 12, Min: 200})

	select {
	case ev := <-received:
		if ev.State != "Indicator On" || ev.Spread != 12 || ev.Min != 200 {
			t.Errorf("received event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestSubscribersAreTypeSelective(t *testing.T) {
	bus := New()

	status := make(chan StatusEvent, 1)
	reboots := make(chan RebootEvent, 1)
	defer bus.Subscribe(func(e StatusEvent) { status <- e })()
	defer bus.Subscribe(func(e RebootEvent) { reboots <- e })()

	bus.Publish(RebootEvent{DurationSeconds: 15})

	select {
	case <-reboots:
	case <-time.After(time.Second):
		t.Fatal("no reboot event received")
	}

	select {
	case ev := <-status:
		t.Errorf("status subscriber received a reboot event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()

	received := make(chan ResetEvent, 1)
	unsub := bus.Subscribe(func(e ResetEvent) { received <- e })
	unsub()

	bus.Publish(ResetEvent{})

	select {
	case <-received:
		t.Error("unsubscribed handler still received an event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventTypesAreDistinct(t *testing.T) {
	seen := map[uint32]string{}
	for name, typ := range map[string]uint32{
		"status":       StatusEvent{}.Type(),
		"sensor_error": SensorErrorEvent{}.Type(),
		"reboot":       RebootEvent{}.Type(),
		"reset":        ResetEvent{}.Type(),
	} {
		if other, dup := seen[typ]; dup {
			t.Errorf("event types collide: %s and %s share %d", name, other, typ)
		}
		seen[typ] = name
	}
}

package core

import (
	"testing"
	"time"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(10)

	// Subscribe
	ch := bus.Subscribe()

	// Publish event
	event := Event{
		Type:      EventMissionSent,
		Activity:  "AutoDiscovery",
		Data:      MissionData{Origin: "[1:1:1]", Destination: "[1:2:3]"},
		Timestamp: time.Now(),
	}
	bus.Publish(event)

	// Receive event
	select {
	case received := <-ch:
		if received.Type != EventMissionSent {
			t.Errorf("expected type=%s, got %s", EventMissionSent, received.Type)
		}
		data, ok := received.Data.(MissionData)
		if !ok || data.Destination != "[1:2:3]" {
			t.Errorf("expected mission data for [1:2:3], got %+v", received.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	// Unsubscribe
	bus.Unsubscribe(ch)

	// Channel should be closed
	_, ok := <-ch
	if ok {
		t.Error("expected channel to be closed")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)

	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()

	event := Event{
		Type:      EventCycleFinished,
		Activity:  "AutoDiscovery",
		Timestamp: time.Now(),
	}
	bus.Publish(event)

	// Both should receive
	select {
	case <-ch1:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("ch1 timeout")
	}

	select {
	case <-ch2:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("ch2 timeout")
	}

	bus.Close()
}

func TestEventBusNonBlocking(t *testing.T) {
	// Small buffer
	bus := NewEventBus(1)
	ch := bus.Subscribe()

	for len(ch) < cap(ch) {
		bus.Publish(Event{Type: EventCycleStarted})
	}

	// This should not block (event dropped)
	done := make(chan bool)
	go func() {
		bus.Publish(Event{Type: EventActivityStopped})
		done <- true
	}()

	select {
	case <-done:
		// Good, didn't block
	case <-time.After(100 * time.Millisecond):
		t.Fatal("publish blocked")
	}

	if bus.Dropped() != 1 {
		t.Errorf("expected 1 dropped event, got %d", bus.Dropped())
	}

	// Drain the buffer
	<-ch
	bus.Close()
}

func TestEventBusPublishBlockingDelivers(t *testing.T) {
	bus := NewEventBus(1)
	ch := bus.Subscribe()

	for len(ch) < cap(ch) {
		bus.Publish(Event{Type: EventCycleStarted})
	}

	resultCh := make(chan bool, 1)
	go func() {
		resultCh <- bus.PublishBlocking(Event{Type: EventActivityStopped}, 100*time.Millisecond)
	}()

	select {
	case <-resultCh:
		t.Fatal("expected PublishBlocking to wait for buffer space")
	case <-time.After(20 * time.Millisecond):
	}

	<-ch

	select {
	case delivered := <-resultCh:
		if !delivered {
			t.Fatal("expected PublishBlocking to deliver")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for PublishBlocking")
	}

	deletedFound := false
	for i := 0; i < cap(ch); i++ {
		received := <-ch
		if received.Type == EventActivityStopped {
			deletedFound = true
		}
	}
	if !deletedFound {
		t.Fatal("expected to find blocking event")
	}

	bus.Close()
}

func TestEventBusPublishBlockingTimeout(t *testing.T) {
	bus := NewEventBus(1)
	ch := bus.Subscribe()

	for len(ch) < cap(ch) {
		bus.Publish(Event{Type: EventCycleStarted})
	}

	start := time.Now()
	delivered := bus.PublishBlocking(Event{Type: EventActivityStopped}, 20*time.Millisecond)
	if delivered {
		t.Fatal("expected PublishBlocking to timeout")
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("expected PublishBlocking to wait for timeout")
	}

	<-ch
	bus.Close()
}

func TestEventBusClose(t *testing.T) {
	bus := NewEventBus(10)

	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()

	bus.Close()

	// Both channels should be closed
	_, ok1 := <-ch1
	_, ok2 := <-ch2

	if ok1 || ok2 {
		t.Error("expected all channels to be closed")
	}
}

func TestEventBusPublishBlockingAfterTimeout(t *testing.T) {
	bus := NewEventBus(1)
	full := bus.Subscribe()
	empty := bus.Subscribe()

	for len(full) < cap(full) {
		bus.Publish(Event{Type: EventCycleStarted})
	}
	for len(empty) > 0 {
		<-empty
	}

	done := make(chan bool, 1)
	go func() {
		done <- bus.PublishBlocking(Event{Type: EventActivityStopped}, 20*time.Millisecond)
	}()

	select {
	case delivered := <-done:
		if delivered {
			t.Error("expected partial delivery to report false")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("PublishBlocking hung after timeout")
	}

	select {
	case ev := <-empty:
		if ev.Type != EventActivityStopped {
			t.Errorf("expected %s, got %s", EventActivityStopped, ev.Type)
		}
	default:
		t.Error("expected second subscriber to receive the event")
	}
	bus.Close()
}

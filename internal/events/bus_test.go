package events_test

import (
	"testing"
	"time"

	"github.com/phoenixhw/phoenix/internal/events"
)

func TestBusSubscribePublish(t *testing.T) {
	bus := events.NewBus[string]()

	ch := bus.Subscribe("test1")

	bus.Publish("connected:0x50")

	select {
	case got := <-ch:
		if got != "connected:0x50" {
			t.Errorf("got %q, want %q", got, "connected:0x50")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := events.NewBus[string]()
	ch := bus.Subscribe("test-unsub")

	bus.Unsubscribe("test-unsub")

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBusDropsEventsWhenFull(t *testing.T) {
	bus := events.NewBus[int]()
	ch := bus.Subscribe("slow-reader")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			bus.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Publish blocked for too long (should drop events)")
	}

	bus.Unsubscribe("slow-reader")
	_ = ch
}

func TestBusSubscriberCount(t *testing.T) {
	bus := events.NewBus[int]()
	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
	bus.Subscribe("s1")
	bus.Subscribe("s2")
	if n := bus.SubscriberCount(); n != 2 {
		t.Errorf("expected 2 subscribers, got %d", n)
	}
	bus.Unsubscribe("s1")
	if n := bus.SubscriberCount(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}
}

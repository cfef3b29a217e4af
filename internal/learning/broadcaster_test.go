package learning

import (
	"fmt"
	"testing"
	"time"
)

func makeEvent(deviceID string, seq int) Event {
	return Event{
		SessionID: fmt.Sprintf("s-%d", seq),
		DeviceID:  deviceID,
		State:     StateArmed,
		Timestamp: time.Now().UTC(),
	}
}

func TestBroadcaster_PerDeviceDelivery(t *testing.T) {
	b := NewBroadcaster(0)

	sub1 := b.Subscribe("dev-1")
	defer sub1.Cancel()
	sub2 := b.Subscribe("dev-2")
	defer sub2.Cancel()

	b.Publish(makeEvent("dev-1", 1))

	select {
	case ev := <-sub1.C:
		if ev.DeviceID != "dev-1" {
			t.Errorf("event device = %s, want dev-1", ev.DeviceID)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}

	select {
	case ev := <-sub2.C:
		t.Fatalf("dev-2 subscriber received foreign event %+v", ev)
	default:
	}
}

func TestBroadcaster_SubscribeAll(t *testing.T) {
	b := NewBroadcaster(0)

	sub := b.SubscribeAll()
	defer sub.Cancel()

	b.Publish(makeEvent("dev-1", 1))
	b.Publish(makeEvent("dev-2", 2))

	for _, want := range []string{"dev-1", "dev-2"} {
		select {
		case ev := <-sub.C:
			if ev.DeviceID != want {
				t.Errorf("event device = %s, want %s", ev.DeviceID, want)
			}
		case <-time.After(time.Second):
			t.Fatal("global subscriber missed an event")
		}
	}
}

func TestBroadcaster_OrderPreserved(t *testing.T) {
	b := NewBroadcaster(64)

	sub := b.Subscribe("dev-1")
	defer sub.Cancel()

	const n = 32
	for i := 0; i < n; i++ {
		b.Publish(makeEvent("dev-1", i))
	}

	for i := 0; i < n; i++ {
		ev := <-sub.C
		if ev.SessionID != fmt.Sprintf("s-%d", i) {
			t.Fatalf("event %d out of order: %s", i, ev.SessionID)
		}
	}
}

func TestBroadcaster_DropOldestOnOverflow(t *testing.T) {
	b := NewBroadcaster(4)

	sub := b.Subscribe("dev-1")
	defer sub.Cancel()

	// Publish more than the buffer holds while the subscriber is idle.
	for i := 0; i < 10; i++ {
		b.Publish(makeEvent("dev-1", i))
	}

	// The oldest events were evicted; the newest survive in order.
	var got []string
	for len(got) < 4 {
		select {
		case ev := <-sub.C:
			got = append(got, ev.SessionID)
		case <-time.After(time.Second):
			t.Fatalf("only received %d events", len(got))
		}
	}
	if got[len(got)-1] != "s-9" {
		t.Errorf("last event = %s, want s-9 (newest)", got[len(got)-1])
	}
	select {
	case ev := <-sub.C:
		t.Fatalf("buffer held more than its bound: %+v", ev)
	default:
	}
}

func TestBroadcaster_SlowSubscriberNeverBlocksPublish(t *testing.T) {
	b := NewBroadcaster(1)

	sub := b.Subscribe("dev-1")
	defer sub.Cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(makeEvent("dev-1", i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestBroadcaster_Cancel(t *testing.T) {
	b := NewBroadcaster(0)

	sub := b.Subscribe("dev-1")
	all := b.SubscribeAll()
	if b.SubscriberCount() != 2 {
		t.Errorf("SubscriberCount() = %d, want 2", b.SubscriberCount())
	}

	sub.Cancel()
	sub.Cancel() // safe to repeat
	all.Cancel()

	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() after cancel = %d, want 0", b.SubscriberCount())
	}

	// The channel is closed so ranging terminates.
	if _, open := <-sub.C; open {
		t.Error("Cancel() did not close the subscription channel")
	}

	// Publishing after every subscriber left is harmless.
	b.Publish(makeEvent("dev-1", 1))
}

package dispatch

import (
	"testing"
	"time"

	"fixitquick/models"
)

func TestBrokerDeliversToSubscriber(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("")
	defer cancel()

	b.Publish(models.DispatchEvent{Type: models.EventOfferSent, BookingID: "b1"})

	select {
	case ev := <-ch:
		if ev.Type != models.EventOfferSent || ev.BookingID != "b1" {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.At.IsZero() {
			t.Fatal("event timestamp not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBrokerFiltersByBooking(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("b1")
	defer cancel()

	b.Publish(models.DispatchEvent{Type: models.EventOfferSent, BookingID: "b2"})
	b.Publish(models.DispatchEvent{Type: models.EventOfferAccepted, BookingID: "b1"})

	select {
	case ev := <-ch:
		if ev.BookingID != "b1" {
			t.Fatalf("filter leaked event for %s", ev.BookingID)
		}
	case <-time.After(time.Second):
		t.Fatal("matching event not delivered")
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event %+v", ev)
	default:
	}
}

func TestBrokerDropsWhenSubscriberIsSlow(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("")
	defer cancel()

	// Publishing past the buffer must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(models.DispatchEvent{Type: models.EventOfferSent, BookingID: "b1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	if got := len(ch); got > subscriberBuffer {
		t.Fatalf("buffer overflowed: %d", got)
	}
}

func TestBrokerCancelStopsDelivery(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("")
	cancel()

	// Channel is closed; publish after cancel must not panic.
	b.Publish(models.DispatchEvent{Type: models.EventOfferSent, BookingID: "b1"})

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}

	// Double cancel is safe.
	cancel()
}

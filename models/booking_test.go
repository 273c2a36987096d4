package models

import (
	"testing"
	"time"
)

func TestBookingStatusTerminal(t *testing.T) {
	terminal := []BookingStatus{BookingCompleted, BookingCancelled, BookingUnfulfilled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []BookingStatus{BookingAwaitingDispatch, BookingOfferOutstanding, BookingAssigned, BookingInProgress}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if BookingStatus("bogus").IsValid() {
		t.Error("bogus status should be invalid")
	}
}

func TestOfferStatusTerminal(t *testing.T) {
	if OfferSent.Terminal() {
		t.Error("sent is the only open status")
	}
	for _, s := range []OfferStatus{OfferAccepted, OfferDeclined, OfferExpired, OfferSuperseded} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestOfferExpired(t *testing.T) {
	now := time.Now()
	o := JobOffer{ExpiresAt: now.Add(time.Minute)}
	if o.Expired(now) {
		t.Error("offer inside the window is not expired")
	}
	if !o.Expired(now.Add(time.Minute)) {
		t.Error("expiry boundary counts as expired")
	}
	if !o.Expired(now.Add(2 * time.Minute)) {
		t.Error("offer past the window is expired")
	}
}

func TestAvailabilityAtCapacity(t *testing.T) {
	if (Availability{MaxJobs: 2, ActiveJobs: 1}).AtCapacity() {
		t.Error("under the limit is not at capacity")
	}
	if !(Availability{MaxJobs: 2, ActiveJobs: 2}).AtCapacity() {
		t.Error("at the limit is at capacity")
	}
	if (Availability{MaxJobs: 0, ActiveJobs: 10}).AtCapacity() {
		t.Error("zero MaxJobs means unlimited")
	}
}

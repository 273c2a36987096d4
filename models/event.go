package models

import "time"

// DispatchEventType identifies what happened to a booking or offer.
type DispatchEventType string

const (
	EventOfferSent          DispatchEventType = "offer_sent"
	EventOfferAccepted      DispatchEventType = "offer_accepted"
	EventOfferDeclined      DispatchEventType = "offer_declined"
	EventOfferExpired       DispatchEventType = "offer_expired"
	EventOfferSuperseded    DispatchEventType = "offer_superseded"
	EventBookingAssigned    DispatchEventType = "booking_assigned"
	EventBookingCancelled   DispatchEventType = "booking_cancelled"
	EventBookingUnfulfilled DispatchEventType = "booking_unfulfilled"
	EventBookingStarted     DispatchEventType = "booking_started"
	EventBookingCompleted   DispatchEventType = "booking_completed"
)

// DispatchEvent is published on every state transition so dashboards can
// subscribe instead of polling client-side caches.
type DispatchEvent struct {
	Type       DispatchEventType `json:"type"`
	BookingID  string            `json:"bookingId"`
	OfferID    string            `json:"offerId,omitempty"`
	ProviderID string            `json:"providerId,omitempty"`
	At         time.Time         `json:"at"`
	Data       map[string]string `json:"data,omitempty"`
}

package models

import "time"

// BookingStatus tracks a booking through the dispatch lifecycle.
type BookingStatus string

const (
	BookingAwaitingDispatch BookingStatus = "awaiting_dispatch"
	BookingOfferOutstanding BookingStatus = "offer_outstanding"
	BookingAssigned         BookingStatus = "assigned"
	BookingInProgress       BookingStatus = "in_progress"
	BookingCompleted        BookingStatus = "completed"
	BookingCancelled        BookingStatus = "cancelled"
	BookingUnfulfilled      BookingStatus = "unfulfilled"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingAwaitingDispatch, BookingOfferOutstanding, BookingAssigned,
		BookingInProgress, BookingCompleted, BookingCancelled, BookingUnfulfilled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is final. Terminal bookings are
// immutable.
func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingUnfulfilled:
		return true
	default:
		return false
	}
}

func (s BookingStatus) String() string {
	return string(s)
}

// Urgency is the customer-declared urgency tier of a booking.
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyEmergency:
		return true
	default:
		return false
	}
}

// Booking represents a customer's service request. It is created by the
// intake endpoint and mutated only by the dispatch coordinator.
type Booking struct {
	ID          string        `bson:"id" json:"id"`
	CustomerID  string        `bson:"customer_id" json:"customerId"`
	ServiceType string        `bson:"service_type" json:"serviceType"`
	Urgency     Urgency       `bson:"urgency" json:"urgency"`
	Location    Location      `bson:"location" json:"location"`
	TotalAmount float64       `bson:"total_amount" json:"totalAmount"`
	Status      BookingStatus `bson:"status" json:"status"`

	// Set exactly once, when an offer wins the assignment.
	AssignedProviderID string `bson:"assigned_provider_id,omitempty" json:"assignedProviderId,omitempty"`
	AcceptedOfferID    string `bson:"accepted_offer_id,omitempty" json:"acceptedOfferId,omitempty"`

	// DispatchRound counts how many times this booking has been fanned out.
	DispatchRound int `bson:"dispatch_round" json:"dispatchRound"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

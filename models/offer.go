package models

import "time"

// OfferStatus tracks one proposal of a booking to one provider. Transitions
// are one-directional: sent -> {accepted | declined | expired | superseded}.
type OfferStatus string

const (
	OfferSent       OfferStatus = "sent"
	OfferAccepted   OfferStatus = "accepted"
	OfferDeclined   OfferStatus = "declined"
	OfferExpired    OfferStatus = "expired"
	OfferSuperseded OfferStatus = "superseded"
)

func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferSent, OfferAccepted, OfferDeclined, OfferExpired, OfferSuperseded:
		return true
	default:
		return false
	}
}

// Terminal reports whether the offer can no longer change status.
func (s OfferStatus) Terminal() bool {
	return s != OfferSent && s.IsValid()
}

func (s OfferStatus) String() string {
	return string(s)
}

// JobOffer is a time-boxed proposal of a booking to a single provider.
// Offers are never deleted; resolved offers are retained for history.
type JobOffer struct {
	ID         string      `bson:"id" json:"id"`
	BookingID  string      `bson:"booking_id" json:"bookingId"`
	ProviderID string      `bson:"provider_id" json:"providerId"`
	Status     OfferStatus `bson:"status" json:"status"`
	Urgency    Urgency     `bson:"urgency" json:"urgency"`

	// RankHint is the selector's score for this provider, passed through
	// for display. Higher ranks sort first.
	RankHint float64 `bson:"rank_hint" json:"rankHint"`

	// Round is the dispatch round that produced this offer.
	Round int `bson:"round" json:"round"`

	SentAt    time.Time `bson:"sent_at" json:"sentAt"`
	ExpiresAt time.Time `bson:"expires_at" json:"expiresAt"`

	// ResolvedAt is stamped when the offer leaves the sent status.
	ResolvedAt    time.Time `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
	DeclineReason string    `bson:"decline_reason,omitempty" json:"declineReason,omitempty"`
}

// Expired reports whether the offer window has passed at the given instant.
func (o *JobOffer) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

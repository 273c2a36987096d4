package models

// Candidate is one entry of the ranked list produced by candidate selection.
type Candidate struct {
	ProviderID string  `json:"providerId"`
	RankHint   float64 `json:"rankHint"`
}

// DispatchPolicy selects how a booking is fanned out to candidates.
type DispatchPolicy string

const (
	// PolicyBroadcast sends offers to the top-N candidates simultaneously.
	PolicyBroadcast DispatchPolicy = "broadcast"
	// PolicySequential sends one offer at a time, advancing on
	// decline or expiry.
	PolicySequential DispatchPolicy = "sequential"
)

func (p DispatchPolicy) IsValid() bool {
	return p == PolicyBroadcast || p == PolicySequential
}

// DispatchOutcome summarises what a dispatch call did to a booking.
type DispatchOutcome string

const (
	DispatchDispatched      DispatchOutcome = "dispatched"
	DispatchUnfulfilled     DispatchOutcome = "unfulfilled"
	DispatchAlreadyResolved DispatchOutcome = "already_resolved"
)

// DispatchResult reports the offers created by one dispatch round.
type DispatchResult struct {
	BookingID string          `json:"bookingId"`
	Policy    DispatchPolicy  `json:"policy"`
	Outcome   DispatchOutcome `json:"outcome"`
	OfferIDs  []string        `json:"offerIds,omitempty"`
	Round     int             `json:"round"`
}

// OfferOutcome is the typed result of an accept or decline attempt. Races
// are expected and always surface as one of these, never as a generic error.
type OfferOutcome string

const (
	OutcomeWon             OfferOutcome = "won"
	OutcomeLost            OfferOutcome = "lost"
	OutcomeExpired         OfferOutcome = "expired"
	OutcomeAlreadyResolved OfferOutcome = "already_resolved"
	OutcomeNotFound        OfferOutcome = "not_found"
	OutcomeDeclined        OfferOutcome = "declined"
)

package dispatch

import (
	"context"
	"time"

	"fixitquick/models"
)

// Coordinator owns the booking -> offer lifecycle and guarantees the
// exactly-one-winner semantics under concurrent accepts, declines, expiry
// timer fires and cancellations.
type Coordinator interface {
	// Dispatch fans a booking out to candidate providers according to the
	// configured policy and arms an expiry timer per offer.
	Dispatch(ctx context.Context, bookingID string) (*models.DispatchResult, error)

	// Accept records a provider's acceptance. Exactly one accept per
	// booking returns OutcomeWon; every other caller gets a typed outcome.
	Accept(ctx context.Context, offerID, providerID string) (models.OfferOutcome, error)

	// Decline records a provider's refusal and advances dispatch.
	Decline(ctx context.Context, offerID, providerID, reason string) (models.OfferOutcome, error)

	// HandleExpiry is the timer callback. Safe to call any number of times
	// for the same offer; a fire that lost the race is a no-op.
	HandleExpiry(ctx context.Context, offerID string) error

	// CancelBooking moves a non-terminal booking to cancelled and
	// supersedes its outstanding offers.
	CancelBooking(ctx context.Context, bookingID string) error

	// StartJob and CompleteJob progress an assigned booking through
	// in_progress to completed.
	StartJob(ctx context.Context, bookingID, providerID string) error
	CompleteJob(ctx context.Context, bookingID, providerID string) error

	// Recover reconciles the timer schedule against the store on startup:
	// re-arms timers for live offers, expires offers whose window already
	// passed.
	Recover(ctx context.Context) error
}

// CandidateSelector produces the ranked candidate list for a booking.
// Implementations must be safe to call repeatedly; selection is a read.
type CandidateSelector interface {
	SelectCandidates(ctx context.Context, booking *models.Booking, exclude []string) ([]models.Candidate, error)
}

// ExpiryScheduler schedules the HandleExpiry callback for an offer. The
// offer id doubles as the timer handle. Cancel is best-effort: a timer that
// fires after its offer resolved is absorbed by the status guard.
type ExpiryScheduler interface {
	Schedule(ctx context.Context, offerID string, fireAt time.Time) error
	Cancel(ctx context.Context, offerID string) error
}

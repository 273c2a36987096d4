package dispatchRepo

import (
	"context"
	"errors"

	"fixitquick/models"
)

// Typed repository errors. Callers branch on these to map store failures to
// the outcomes the API exposes.
var (
	ErrBookingNotFound = errors.New("dispatch repo: booking not found")
	ErrOfferNotFound   = errors.New("dispatch repo: offer not found")
	ErrUnavailable     = errors.New("dispatch repo: store unavailable")
)

// DispatchRepository is the durable store for bookings and job offers. It is
// the single source of truth for status transitions: every transition goes
// through a compare-and-swap filtered on the expected current status, so no
// two concurrent writers can both win.
type DispatchRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error)

	// CompareAndSetBookingStatus transitions the booking only if its status
	// still equals expected. Returns false (and no error) when the booking
	// had already moved on.
	CompareAndSetBookingStatus(ctx context.Context, bookingID string, expected, next models.BookingStatus) (bool, error)

	// CompareAndSetDispatchRound claims the next fan-out round. It succeeds
	// only when the stored counter still equals expected, so concurrent
	// re-dispatch attempts for the same booking resolve to one winner.
	CompareAndSetDispatchRound(ctx context.Context, bookingID string, expected, next int) (bool, error)

	CreateOffer(ctx context.Context, offer *models.JobOffer) error
	GetOfferByID(ctx context.Context, offerID string) (*models.JobOffer, error)
	ListOffersByBooking(ctx context.Context, bookingID string) ([]models.JobOffer, error)
	ListOffersByProvider(ctx context.Context, providerID string, status models.OfferStatus) ([]models.JobOffer, error)

	// ListSentOffers returns every offer still in the sent status, across
	// bookings. Used by startup reconciliation to re-arm expiry timers.
	ListSentOffers(ctx context.Context) ([]models.JobOffer, error)

	// CountSentOffers reports how many offers for the booking are still
	// outstanding.
	CountSentOffers(ctx context.Context, bookingID string) (int64, error)

	// CompareAndSetOfferStatus transitions the offer only if its status
	// still equals expected, stamping ResolvedAt and, when non-empty, the
	// decline reason. Returns false when the offer had already resolved.
	CompareAndSetOfferStatus(ctx context.Context, offerID string, expected, next models.OfferStatus, reason string) (bool, error)

	// AcceptOffer atomically marks the offer accepted and the booking
	// assigned to the offer's provider. Both writes are guarded: the offer
	// must still be sent and the booking must still be offer_outstanding.
	// Returns false without partial effect when either guard misses; the
	// booking write is the arbiter of the exactly-one-winner guarantee.
	AcceptOffer(ctx context.Context, offerID, bookingID, providerID string) (bool, error)
}

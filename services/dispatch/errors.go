package dispatch

import (
	"errors"
	"fmt"

	dispatchRepo "fixitquick/database/repository/dispatch"
)

// Typed engine errors. Expected races never surface as errors; they come
// back as OfferOutcome values. These cover the genuinely exceptional cases.
var (
	// ErrBookingNotFound is returned when the booking id is unknown.
	ErrBookingNotFound = errors.New("dispatch: booking not found")

	// ErrOfferNotFound is returned when the offer id is unknown.
	ErrOfferNotFound = errors.New("dispatch: offer not found")

	// ErrStoreUnavailable wraps transient store failures. The operation was
	// not applied (or not fully applied guards held); callers retry with
	// backoff.
	ErrStoreUnavailable = errors.New("dispatch: store unavailable")

	// ErrBookingTerminal is returned when an operation targets a booking in
	// a terminal status.
	ErrBookingTerminal = errors.New("dispatch: booking already in a terminal status")

	// ErrStaleTransition is returned when a lifecycle progression (start,
	// complete) finds the booking no longer in the expected status.
	ErrStaleTransition = errors.New("dispatch: booking status changed underneath the transition")

	// ErrNotAssignedProvider is returned when a provider acts on a booking
	// assigned to someone else.
	ErrNotAssignedProvider = errors.New("dispatch: booking is not assigned to this provider")
)

// isNotFound matches the repository's and the engine's not-found errors.
func isNotFound(err error) bool {
	return errors.Is(err, dispatchRepo.ErrOfferNotFound) ||
		errors.Is(err, dispatchRepo.ErrBookingNotFound) ||
		errors.Is(err, ErrOfferNotFound) ||
		errors.Is(err, ErrBookingNotFound)
}

// storeErr maps repository failures onto the engine's error taxonomy.
func storeErr(err error) error {
	switch {
	case errors.Is(err, dispatchRepo.ErrBookingNotFound):
		return ErrBookingNotFound
	case errors.Is(err, dispatchRepo.ErrOfferNotFound):
		return ErrOfferNotFound
	case errors.Is(err, dispatchRepo.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return err
	}
}

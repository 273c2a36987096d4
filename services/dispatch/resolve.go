package dispatch

import (
	"context"

	"fixitquick/models"

	"go.uber.org/zap"
)

// Accept records a provider's acceptance of an offer. The winner is decided
// by the store's compare-and-swap on the booking assignment, not by delivery
// order: exactly one concurrent accept observes OutcomeWon, everyone else
// gets a precise "too late" outcome.
func (c *DefaultCoordinator) Accept(ctx context.Context, offerID, providerID string) (models.OfferOutcome, error) {
	offer, err := c.Repo.GetOfferByID(ctx, offerID)
	if isNotFound(err) {
		return models.OutcomeNotFound, nil
	}
	if err != nil {
		return "", storeErr(err)
	}
	if providerID != "" && offer.ProviderID != providerID {
		// Offers are addressed to one provider; anyone else sees nothing.
		return models.OutcomeNotFound, nil
	}

	if offer.Status.Terminal() {
		return c.terminalOutcome(ctx, offer)
	}

	// Past the window: resolve as an expiry would, so the provider gets an
	// honest Expired and the booking moves on to the next candidate.
	if offer.Expired(c.now()) {
		if err := c.resolveExpiry(ctx, offer); err != nil {
			return "", err
		}
		return models.OutcomeExpired, nil
	}

	won, err := c.Repo.AcceptOffer(ctx, offerID, offer.BookingID, offer.ProviderID)
	if err != nil {
		return "", storeErr(err)
	}
	if !won {
		return c.classifyLoss(ctx, offerID)
	}

	c.cancelTimer(ctx, offerID)
	c.supersedeSiblings(ctx, offer.BookingID, offerID)

	if c.Providers != nil {
		if err := c.Providers.IncActiveJobs(ctx, offer.ProviderID, 1); err != nil {
			c.logger().Error("failed to bump provider active jobs",
				zap.String("providerId", offer.ProviderID), zap.Error(err))
		}
	}

	c.notifyOutcome(ctx, offer, models.OutcomeWon)
	c.publish(models.DispatchEvent{
		Type:       models.EventOfferAccepted,
		BookingID:  offer.BookingID,
		OfferID:    offerID,
		ProviderID: offer.ProviderID,
	})
	c.publish(models.DispatchEvent{
		Type:       models.EventBookingAssigned,
		BookingID:  offer.BookingID,
		ProviderID: offer.ProviderID,
	})
	c.logger().Info("offer accepted",
		zap.String("bookingId", offer.BookingID),
		zap.String("offerId", offerID),
		zap.String("providerId", offer.ProviderID))
	return models.OutcomeWon, nil
}

// Decline records a refusal and advances dispatch for the booking.
func (c *DefaultCoordinator) Decline(ctx context.Context, offerID, providerID, reason string) (models.OfferOutcome, error) {
	offer, err := c.Repo.GetOfferByID(ctx, offerID)
	if isNotFound(err) {
		return models.OutcomeNotFound, nil
	}
	if err != nil {
		return "", storeErr(err)
	}
	if providerID != "" && offer.ProviderID != providerID {
		return models.OutcomeNotFound, nil
	}

	if offer.Status.Terminal() {
		return c.terminalOutcome(ctx, offer)
	}

	ok, err := c.Repo.CompareAndSetOfferStatus(ctx, offerID, models.OfferSent, models.OfferDeclined, reason)
	if err != nil {
		return "", storeErr(err)
	}
	if !ok {
		// Lost a race against expiry, supersession or a duplicate decline.
		fresh, err := c.Repo.GetOfferByID(ctx, offerID)
		if err != nil {
			return "", storeErr(err)
		}
		return c.terminalOutcome(ctx, fresh)
	}

	c.cancelTimer(ctx, offerID)
	c.publish(models.DispatchEvent{
		Type:       models.EventOfferDeclined,
		BookingID:  offer.BookingID,
		OfferID:    offerID,
		ProviderID: offer.ProviderID,
		Data:       map[string]string{"reason": reason},
	})
	c.logger().Info("offer declined",
		zap.String("bookingId", offer.BookingID),
		zap.String("offerId", offerID),
		zap.String("reason", reason))

	if err := c.advance(ctx, offer.BookingID); err != nil {
		return "", err
	}
	return models.OutcomeDeclined, nil
}

// HandleExpiry is the timer callback. The status guard makes duplicate
// fires, and fires racing a concurrent accept, no-ops.
func (c *DefaultCoordinator) HandleExpiry(ctx context.Context, offerID string) error {
	offer, err := c.Repo.GetOfferByID(ctx, offerID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return storeErr(err)
	}
	if offer.Status != models.OfferSent {
		return nil
	}
	return c.resolveExpiry(ctx, offer)
}

// resolveExpiry moves a sent offer to expired and advances the booking.
func (c *DefaultCoordinator) resolveExpiry(ctx context.Context, offer *models.JobOffer) error {
	ok, err := c.Repo.CompareAndSetOfferStatus(ctx, offer.ID, models.OfferSent, models.OfferExpired, "")
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		// Someone resolved the offer first; this fire is a no-op.
		return nil
	}

	c.notifyOutcome(ctx, offer, models.OutcomeExpired)
	c.publish(models.DispatchEvent{
		Type:       models.EventOfferExpired,
		BookingID:  offer.BookingID,
		OfferID:    offer.ID,
		ProviderID: offer.ProviderID,
	})
	c.logger().Info("offer expired",
		zap.String("bookingId", offer.BookingID),
		zap.String("offerId", offer.ID))

	return c.advance(ctx, offer.BookingID)
}

// CancelBooking moves a non-terminal booking to cancelled and supersedes its
// outstanding offers. A late accept on a superseded offer observes
// OutcomeAlreadyResolved.
func (c *DefaultCoordinator) CancelBooking(ctx context.Context, bookingID string) error {
	for {
		booking, err := c.Repo.GetBookingByID(ctx, bookingID)
		if err != nil {
			return storeErr(err)
		}
		if booking.Status == models.BookingCancelled {
			return nil
		}
		if booking.Status.Terminal() {
			return ErrBookingTerminal
		}
		ok, err := c.Repo.CompareAndSetBookingStatus(ctx, bookingID, booking.Status, models.BookingCancelled)
		if err != nil {
			return storeErr(err)
		}
		if ok {
			break
		}
		// Status moved underneath us; re-read and retry from the new state.
	}

	c.supersedeSiblings(ctx, bookingID, "")
	c.publish(models.DispatchEvent{
		Type:      models.EventBookingCancelled,
		BookingID: bookingID,
	})
	c.logger().Info("booking cancelled", zap.String("bookingId", bookingID))
	return nil
}

// supersedeSiblings resolves every still-sent offer for the booking except
// keepOfferID: cancel its timer, mark superseded, tell the provider.
func (c *DefaultCoordinator) supersedeSiblings(ctx context.Context, bookingID, keepOfferID string) {
	offers, err := c.Repo.ListOffersByBooking(ctx, bookingID)
	if err != nil {
		c.logger().Error("failed to list offers for supersession",
			zap.String("bookingId", bookingID), zap.Error(err))
		return
	}
	for i := range offers {
		o := offers[i]
		if o.ID == keepOfferID || o.Status != models.OfferSent {
			continue
		}
		ok, err := c.Repo.CompareAndSetOfferStatus(ctx, o.ID, models.OfferSent, models.OfferSuperseded, "")
		if err != nil {
			c.logger().Error("failed to supersede offer",
				zap.String("offerId", o.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		c.cancelTimer(ctx, o.ID)
		c.notifyOutcome(ctx, &o, models.OutcomeLost)
		c.publish(models.DispatchEvent{
			Type:       models.EventOfferSuperseded,
			BookingID:  bookingID,
			OfferID:    o.ID,
			ProviderID: o.ProviderID,
		})
	}
}

// terminalOutcome maps an already-resolved offer onto the outcome the caller
// should see.
func (c *DefaultCoordinator) terminalOutcome(ctx context.Context, offer *models.JobOffer) (models.OfferOutcome, error) {
	switch offer.Status {
	case models.OfferExpired:
		return models.OutcomeExpired, nil
	case models.OfferSuperseded:
		// Superseded because another offer won reads as Lost; superseded
		// because the booking went away reads as AlreadyResolved.
		booking, err := c.Repo.GetBookingByID(ctx, offer.BookingID)
		if err != nil {
			return "", storeErr(err)
		}
		switch booking.Status {
		case models.BookingAssigned, models.BookingInProgress, models.BookingCompleted:
			return models.OutcomeLost, nil
		default:
			return models.OutcomeAlreadyResolved, nil
		}
	default:
		return models.OutcomeAlreadyResolved, nil
	}
}

// classifyLoss explains a failed accept CAS: somebody else won, the booking
// went away, or the offer itself resolved first.
func (c *DefaultCoordinator) classifyLoss(ctx context.Context, offerID string) (models.OfferOutcome, error) {
	offer, err := c.Repo.GetOfferByID(ctx, offerID)
	if err != nil {
		return "", storeErr(err)
	}
	if offer.Status.Terminal() {
		return c.terminalOutcome(ctx, offer)
	}

	// The offer is still sent, so the booking guard is what failed.
	booking, err := c.Repo.GetBookingByID(ctx, offer.BookingID)
	if err != nil {
		return "", storeErr(err)
	}
	switch booking.Status {
	case models.BookingAssigned, models.BookingInProgress, models.BookingCompleted:
		// Lost the race. Resolve this offer so the provider's list stays
		// consistent; the CAS may lose yet another race, which is fine.
		if ok, err := c.Repo.CompareAndSetOfferStatus(ctx, offerID, models.OfferSent, models.OfferSuperseded, ""); err == nil && ok {
			c.cancelTimer(ctx, offerID)
			c.publish(models.DispatchEvent{
				Type:       models.EventOfferSuperseded,
				BookingID:  offer.BookingID,
				OfferID:    offerID,
				ProviderID: offer.ProviderID,
			})
		}
		return models.OutcomeLost, nil
	default:
		// Booking cancelled or otherwise gone; tidy up the offer.
		if ok, err := c.Repo.CompareAndSetOfferStatus(ctx, offerID, models.OfferSent, models.OfferSuperseded, ""); err == nil && ok {
			c.cancelTimer(ctx, offerID)
		}
		return models.OutcomeAlreadyResolved, nil
	}
}

package dispatch

import (
	"context"
	"fmt"
	"time"

	dispatchRepo "fixitquick/database/repository/dispatch"
	providerRepo "fixitquick/database/repository/provider"
	"fixitquick/models"
	"fixitquick/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCoordinator implements Coordinator. The store is the single source
// of truth: the coordinator holds no authoritative state between calls, and
// every transition is a compare-and-swap through the repository.
type DefaultCoordinator struct {
	Repo      dispatchRepo.DispatchRepository
	Providers providerRepo.ProviderRepository
	Selector  CandidateSelector
	Scheduler ExpiryScheduler
	Notifier  notification.Notifier
	Events    *Broker

	Policy         models.DispatchPolicy
	OfferWindow    time.Duration
	BroadcastLimit int
	MaxRounds      int

	Logger *zap.Logger

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

func (c *DefaultCoordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *DefaultCoordinator) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.L()
}

func (c *DefaultCoordinator) offerWindow() time.Duration {
	if c.OfferWindow > 0 {
		return c.OfferWindow
	}
	return 5 * time.Minute
}

func (c *DefaultCoordinator) maxRounds() int {
	if c.MaxRounds > 0 {
		return c.MaxRounds
	}
	return 3
}

// fanoutLimit is how many offers one round creates.
func (c *DefaultCoordinator) fanoutLimit() int {
	if c.Policy == models.PolicySequential {
		return 1
	}
	if c.BroadcastLimit > 0 {
		return c.BroadcastLimit
	}
	return 5
}

// Dispatch fans the booking out to the next set of candidates. It is called
// externally for a fresh awaiting_dispatch booking and internally when a
// decline or expiry leaves the booking with no outstanding offers.
func (c *DefaultCoordinator) Dispatch(ctx context.Context, bookingID string) (*models.DispatchResult, error) {
	booking, err := c.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, storeErr(err)
	}

	switch booking.Status {
	case models.BookingAwaitingDispatch, models.BookingOfferOutstanding:
		// dispatchable
	default:
		return &models.DispatchResult{
			BookingID: bookingID,
			Policy:    c.Policy,
			Outcome:   models.DispatchAlreadyResolved,
			Round:     booking.DispatchRound,
		}, nil
	}

	// Sequential dispatch walks candidates one per round until the selector
	// runs dry; the round cap only bounds broadcast re-dispatch.
	round := booking.DispatchRound + 1
	if c.Policy != models.PolicySequential && round > c.maxRounds() {
		return c.markUnfulfilled(ctx, booking)
	}

	if booking.Status == models.BookingAwaitingDispatch {
		ok, err := c.Repo.CompareAndSetBookingStatus(ctx, bookingID, models.BookingAwaitingDispatch, models.BookingOfferOutstanding)
		if err != nil {
			return nil, storeErr(err)
		}
		if !ok {
			// Someone else moved the booking first: cancelled, or a
			// concurrent dispatch. Nothing to do here.
			return &models.DispatchResult{
				BookingID: bookingID,
				Policy:    c.Policy,
				Outcome:   models.DispatchAlreadyResolved,
				Round:     booking.DispatchRound,
			}, nil
		}
		booking.Status = models.BookingOfferOutstanding
	}

	// Claim the round before anything else. Two resolutions of the last
	// outstanding offers can both observe the booking as eligible for
	// re-dispatch; the counter CAS is the arbiter that lets only one of
	// them fan out.
	ok, err := c.Repo.CompareAndSetDispatchRound(ctx, bookingID, booking.DispatchRound, round)
	if err != nil {
		return nil, storeErr(err)
	}
	if !ok {
		return &models.DispatchResult{
			BookingID: bookingID,
			Policy:    c.Policy,
			Outcome:   models.DispatchAlreadyResolved,
			Round:     booking.DispatchRound,
		}, nil
	}
	booking.DispatchRound = round

	// Never re-offer a provider who already held an offer for this booking.
	previous, err := c.Repo.ListOffersByBooking(ctx, bookingID)
	if err != nil {
		return nil, storeErr(err)
	}
	exclude := make([]string, 0, len(previous))
	for _, o := range previous {
		exclude = append(exclude, o.ProviderID)
	}

	candidates, err := c.Selector.SelectCandidates(ctx, booking, exclude)
	if err != nil {
		return nil, fmt.Errorf("candidate selection for booking %s: %w", bookingID, err)
	}
	if len(candidates) == 0 {
		return c.markUnfulfilled(ctx, booking)
	}
	if limit := c.fanoutLimit(); len(candidates) > limit {
		candidates = candidates[:limit]
	}

	now := c.now()
	result := &models.DispatchResult{
		BookingID: bookingID,
		Policy:    c.Policy,
		Outcome:   models.DispatchDispatched,
		Round:     round,
	}
	for _, cand := range candidates {
		offer := &models.JobOffer{
			ID:         uuid.New().String(),
			BookingID:  bookingID,
			ProviderID: cand.ProviderID,
			Status:     models.OfferSent,
			Urgency:    booking.Urgency,
			RankHint:   cand.RankHint,
			Round:      round,
			SentAt:     now,
			ExpiresAt:  now.Add(c.offerWindow()),
		}
		if err := c.Repo.CreateOffer(ctx, offer); err != nil {
			// Fatal to this dispatch call; offers already created stay and
			// expire normally.
			return nil, storeErr(err)
		}
		result.OfferIDs = append(result.OfferIDs, offer.ID)

		if err := c.Scheduler.Schedule(ctx, offer.ID, offer.ExpiresAt); err != nil {
			// Recover() re-arms unscheduled offers after a restart.
			c.logger().Error("failed to arm expiry timer",
				zap.String("offerId", offer.ID), zap.Error(err))
		}
		c.notifyCreated(ctx, offer)
		c.publish(models.DispatchEvent{
			Type:       models.EventOfferSent,
			BookingID:  bookingID,
			OfferID:    offer.ID,
			ProviderID: offer.ProviderID,
		})
	}

	c.logger().Info("booking dispatched",
		zap.String("bookingId", bookingID),
		zap.String("policy", string(c.Policy)),
		zap.Int("round", round),
		zap.Int("offers", len(result.OfferIDs)))
	return result, nil
}

// advance runs after a decline or expiry resolved an offer: when nothing is
// outstanding any more and the booking is still unassigned, start the next
// round (or exhaust into unfulfilled).
func (c *DefaultCoordinator) advance(ctx context.Context, bookingID string) error {
	booking, err := c.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return storeErr(err)
	}
	if booking.Status != models.BookingOfferOutstanding {
		return nil
	}
	outstanding, err := c.Repo.CountSentOffers(ctx, bookingID)
	if err != nil {
		return storeErr(err)
	}
	if outstanding > 0 {
		return nil
	}
	_, err = c.Dispatch(ctx, bookingID)
	return err
}

// markUnfulfilled ends dispatch for a booking no candidate will take.
func (c *DefaultCoordinator) markUnfulfilled(ctx context.Context, booking *models.Booking) (*models.DispatchResult, error) {
	ok, err := c.Repo.CompareAndSetBookingStatus(ctx, booking.ID, booking.Status, models.BookingUnfulfilled)
	if err != nil {
		return nil, storeErr(err)
	}
	if ok {
		c.logger().Warn("booking unfulfilled, candidates exhausted",
			zap.String("bookingId", booking.ID),
			zap.Int("rounds", booking.DispatchRound))
		c.publish(models.DispatchEvent{
			Type:      models.EventBookingUnfulfilled,
			BookingID: booking.ID,
		})
	}
	return &models.DispatchResult{
		BookingID: booking.ID,
		Policy:    c.Policy,
		Outcome:   models.DispatchUnfulfilled,
		Round:     booking.DispatchRound,
	}, nil
}

func (c *DefaultCoordinator) publish(ev models.DispatchEvent) {
	if c.Events != nil {
		c.Events.Publish(ev)
	}
}

// notifyCreated delivers a new offer. Gateway failures are logged and
// swallowed; the expiry timer covers offers nobody saw.
func (c *DefaultCoordinator) notifyCreated(ctx context.Context, offer *models.JobOffer) {
	if c.Notifier == nil {
		return
	}
	if err := c.Notifier.NotifyOfferCreated(ctx, offer); err != nil {
		c.logger().Warn("offer notification failed",
			zap.String("offerId", offer.ID),
			zap.String("providerId", offer.ProviderID),
			zap.Error(err))
	}
}

// notifyOutcome delivers an offer resolution. Same failure policy as
// notifyCreated.
func (c *DefaultCoordinator) notifyOutcome(ctx context.Context, offer *models.JobOffer, outcome models.OfferOutcome) {
	if c.Notifier == nil {
		return
	}
	if err := c.Notifier.NotifyOfferOutcome(ctx, offer, outcome); err != nil {
		c.logger().Warn("outcome notification failed",
			zap.String("offerId", offer.ID),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
	}
}

// cancelTimer is best-effort; a fire that slips through is absorbed by the
// status guard in HandleExpiry.
func (c *DefaultCoordinator) cancelTimer(ctx context.Context, offerID string) {
	if c.Scheduler == nil {
		return
	}
	if err := c.Scheduler.Cancel(ctx, offerID); err != nil {
		c.logger().Debug("timer cancellation failed",
			zap.String("offerId", offerID), zap.Error(err))
	}
}

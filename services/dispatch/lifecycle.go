package dispatch

import (
	"context"

	"fixitquick/models"

	"go.uber.org/zap"
)

// StartJob moves an assigned booking to in_progress. Only the assigned
// provider may start the job.
func (c *DefaultCoordinator) StartJob(ctx context.Context, bookingID, providerID string) error {
	booking, err := c.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return storeErr(err)
	}
	if booking.AssignedProviderID != providerID {
		return ErrNotAssignedProvider
	}
	ok, err := c.Repo.CompareAndSetBookingStatus(ctx, bookingID, models.BookingAssigned, models.BookingInProgress)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return ErrStaleTransition
	}

	c.publish(models.DispatchEvent{
		Type:       models.EventBookingStarted,
		BookingID:  bookingID,
		ProviderID: providerID,
	})
	c.logger().Info("job started",
		zap.String("bookingId", bookingID), zap.String("providerId", providerID))
	return nil
}

// CompleteJob moves an in_progress booking to completed and settles the
// provider's counters.
func (c *DefaultCoordinator) CompleteJob(ctx context.Context, bookingID, providerID string) error {
	booking, err := c.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return storeErr(err)
	}
	if booking.AssignedProviderID != providerID {
		return ErrNotAssignedProvider
	}
	ok, err := c.Repo.CompareAndSetBookingStatus(ctx, bookingID, models.BookingInProgress, models.BookingCompleted)
	if err != nil {
		return storeErr(err)
	}
	if !ok {
		return ErrStaleTransition
	}

	if c.Providers != nil {
		if err := c.Providers.IncActiveJobs(ctx, providerID, -1); err != nil {
			c.logger().Error("failed to release provider capacity",
				zap.String("providerId", providerID), zap.Error(err))
		}
		if err := c.Providers.IncCompletedJobs(ctx, providerID); err != nil {
			c.logger().Error("failed to bump completed jobs",
				zap.String("providerId", providerID), zap.Error(err))
		}
	}

	c.publish(models.DispatchEvent{
		Type:       models.EventBookingCompleted,
		BookingID:  bookingID,
		ProviderID: providerID,
	})
	c.logger().Info("job completed",
		zap.String("bookingId", bookingID), zap.String("providerId", providerID))
	return nil
}

// Recover reconciles the timer schedule against the store. The in-memory
// schedule is never trusted across restarts: every sent offer either gets a
// fresh timer or, if its window already passed, expires right now.
func (c *DefaultCoordinator) Recover(ctx context.Context) error {
	offers, err := c.Repo.ListSentOffers(ctx)
	if err != nil {
		return storeErr(err)
	}

	var rearmed, fired int
	now := c.now()
	for i := range offers {
		o := offers[i]
		if o.Expired(now) {
			if err := c.resolveExpiry(ctx, &o); err != nil {
				c.logger().Error("recovery expiry failed",
					zap.String("offerId", o.ID), zap.Error(err))
				continue
			}
			fired++
			continue
		}
		if err := c.Scheduler.Schedule(ctx, o.ID, o.ExpiresAt); err != nil {
			c.logger().Error("recovery re-arm failed",
				zap.String("offerId", o.ID), zap.Error(err))
			continue
		}
		rearmed++
	}

	c.logger().Info("dispatch recovery complete",
		zap.Int("rearmed", rearmed), zap.Int("expired", fired))
	return nil
}

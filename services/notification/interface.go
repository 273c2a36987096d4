package notification

import (
	"context"

	"fixitquick/models"
)

// Notifier delivers offers and outcomes to providers. Every method is
// fire-and-forget from the coordinator's point of view: errors are logged by
// the caller and never block a state transition. An offer nobody was told
// about still expires on schedule, which is the safety net.
type Notifier interface {
	NotifyOfferCreated(ctx context.Context, offer *models.JobOffer) error
	NotifyOfferOutcome(ctx context.Context, offer *models.JobOffer, outcome models.OfferOutcome) error
}

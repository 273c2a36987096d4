package notification

import (
	"context"

	"fixitquick/models"

	"go.uber.org/zap"
)

// NopNotifier logs deliveries instead of pushing them. Used in development
// when no Firebase credentials are configured.
type NopNotifier struct{}

func (NopNotifier) NotifyOfferCreated(ctx context.Context, offer *models.JobOffer) error {
	zap.L().Debug("notification suppressed",
		zap.String("type", "offer_created"),
		zap.String("offerId", offer.ID),
		zap.String("providerId", offer.ProviderID))
	return nil
}

func (NopNotifier) NotifyOfferOutcome(ctx context.Context, offer *models.JobOffer, outcome models.OfferOutcome) error {
	zap.L().Debug("notification suppressed",
		zap.String("type", "offer_outcome"),
		zap.String("offerId", offer.ID),
		zap.String("outcome", string(outcome)))
	return nil
}

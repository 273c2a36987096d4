package notification

import (
	"context"
	"fmt"
	"time"

	providerRepo "fixitquick/database/repository/provider"
	"fixitquick/models"
	"fixitquick/utils"

	"firebase.google.com/go/v4/messaging"
)

// FCMNotifier is the production implementation, pushing over Firebase Cloud
// Messaging.
type FCMNotifier struct {
	Providers providerRepo.ProviderRepository
}

func NewFCMNotifier(providers providerRepo.ProviderRepository) (*FCMNotifier, error) {
	if providers == nil {
		return nil, fmt.Errorf("notification service initialization error: provider repository is nil")
	}
	return &FCMNotifier{Providers: providers}, nil
}

// NotifyOfferCreated pushes a new job offer to the provider's device.
func (s *FCMNotifier) NotifyOfferCreated(ctx context.Context, offer *models.JobOffer) error {
	token, err := s.providerToken(ctx, offer.ProviderID)
	if err != nil {
		return err
	}

	title := "New job offer"
	body := fmt.Sprintf("A %s job is waiting for you. Respond before %s.",
		offer.Urgency, offer.ExpiresAt.Format(time.Kitchen))

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":      "offer_created",
			"offerId":   offer.ID,
			"bookingId": offer.BookingID,
			"urgency":   string(offer.Urgency),
			"expiresAt": offer.ExpiresAt.Format(time.RFC3339),
		},
	}
	if offer.Urgency != models.UrgencyNormal {
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		}
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		}
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("NotifyOfferCreated: failed to send FCM message: %w", err)
	}
	return nil
}

// NotifyOfferOutcome tells the provider how an offer resolved (lost the
// race, superseded by a cancellation, expired).
func (s *FCMNotifier) NotifyOfferOutcome(ctx context.Context, offer *models.JobOffer, outcome models.OfferOutcome) error {
	token, err := s.providerToken(ctx, offer.ProviderID)
	if err != nil {
		return err
	}

	var body string
	switch outcome {
	case models.OutcomeWon:
		body = "You got the job. Head over when you are ready."
	case models.OutcomeLost:
		body = "Another provider accepted this job first."
	case models.OutcomeExpired:
		body = "This offer expired before a response."
	default:
		body = "This offer is no longer available."
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: "Job offer update",
			Body:  body,
		},
		Data: map[string]string{
			"type":      "offer_outcome",
			"offerId":   offer.ID,
			"bookingId": offer.BookingID,
			"outcome":   string(outcome),
		},
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("NotifyOfferOutcome: failed to send FCM message: %w", err)
	}
	return nil
}

func (s *FCMNotifier) providerToken(ctx context.Context, providerID string) (string, error) {
	p, err := s.Providers.GetByID(ctx, providerID)
	if err != nil {
		return "", fmt.Errorf("notification: could not find provider %s: %w", providerID, err)
	}
	if p.Security.FCMToken == "" {
		return "", fmt.Errorf("notification: provider %s has no FCM token", providerID)
	}
	return p.Security.FCMToken, nil
}

package dispatchRepo

import (
	"context"
	"fmt"
	"time"

	"fixitquick/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateOffer inserts a new job offer document.
func (repo *MongoDispatchRepo) CreateOffer(ctx context.Context, offer *models.JobOffer) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	if _, err := repo.offerColl.InsertOne(ctx, offer); err != nil {
		return fmt.Errorf("%w: error creating offer: %v", ErrUnavailable, err)
	}
	return nil
}

// GetOfferByID retrieves an offer by its ID.
func (repo *MongoDispatchRepo) GetOfferByID(ctx context.Context, offerID string) (*models.JobOffer, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var offer models.JobOffer
	err := repo.offerColl.FindOne(ctx, bson.M{"id": offerID}).Decode(&offer)
	if err == mongo.ErrNoDocuments {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error fetching offer %s: %v", ErrUnavailable, offerID, err)
	}
	return &offer, nil
}

// ListOffersByBooking returns every offer ever sent for the booking, newest
// round first.
func (repo *MongoDispatchRepo) ListOffersByBooking(ctx context.Context, bookingID string) ([]models.JobOffer, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "round", Value: -1}, {Key: "rank_hint", Value: -1}})
	cursor, err := repo.offerColl.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing offers for booking %s: %v", ErrUnavailable, bookingID, err)
	}
	return decodeOffers(ctx, cursor)
}

// ListOffersByProvider returns the provider's offers, optionally filtered by
// status. Dashboards poll this for pending offers.
func (repo *MongoDispatchRepo) ListOffersByProvider(ctx context.Context, providerID string, status models.OfferStatus) ([]models.JobOffer, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	filter := bson.M{"provider_id": providerID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}})
	cursor, err := repo.offerColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing offers for provider %s: %v", ErrUnavailable, providerID, err)
	}
	return decodeOffers(ctx, cursor)
}

// ListSentOffers returns all outstanding offers across bookings.
func (repo *MongoDispatchRepo) ListSentOffers(ctx context.Context) ([]models.JobOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "expires_at", Value: 1}})
	cursor, err := repo.offerColl.Find(ctx, bson.M{"status": models.OfferSent}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing sent offers: %v", ErrUnavailable, err)
	}
	return decodeOffers(ctx, cursor)
}

// CountSentOffers reports how many offers for the booking are still sent.
func (repo *MongoDispatchRepo) CountSentOffers(ctx context.Context, bookingID string) (int64, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	n, err := repo.offerColl.CountDocuments(ctx, bson.M{"booking_id": bookingID, "status": models.OfferSent})
	if err != nil {
		return 0, fmt.Errorf("%w: error counting sent offers for booking %s: %v", ErrUnavailable, bookingID, err)
	}
	return n, nil
}

// CompareAndSetOfferStatus performs the guarded offer transition, stamping
// resolution metadata alongside the status in the same write.
func (repo *MongoDispatchRepo) CompareAndSetOfferStatus(ctx context.Context, offerID string, expected, next models.OfferStatus, reason string) (bool, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	set := bson.M{"status": next, "resolved_at": time.Now()}
	if reason != "" {
		set["decline_reason"] = reason
	}
	filter := bson.M{"id": offerID, "status": expected}
	res, err := repo.offerColl.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("%w: error updating offer %s: %v", ErrUnavailable, offerID, err)
	}
	return res.MatchedCount == 1, nil
}

func decodeOffers(ctx context.Context, cursor *mongo.Cursor) ([]models.JobOffer, error) {
	defer cursor.Close(ctx)

	var offers []models.JobOffer
	for cursor.Next(ctx) {
		var o models.JobOffer
		if err := cursor.Decode(&o); err != nil {
			return nil, fmt.Errorf("%w: error decoding offer: %v", ErrUnavailable, err)
		}
		offers = append(offers, o)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: offer cursor error: %v", ErrUnavailable, err)
	}
	return offers, nil
}

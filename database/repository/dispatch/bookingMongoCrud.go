package dispatchRepo

import (
	"context"
	"fmt"
	"time"

	"fixitquick/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateBooking inserts a new booking document.
func (repo *MongoDispatchRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	if _, err := repo.bookingColl.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("%w: error creating booking: %v", ErrUnavailable, err)
	}
	return nil
}

// GetBookingByID retrieves a booking by its ID.
func (repo *MongoDispatchRepo) GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctx, bson.M{"id": bookingID}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error fetching booking %s: %v", ErrUnavailable, bookingID, err)
	}
	return &booking, nil
}

// CompareAndSetBookingStatus performs the guarded status transition. The
// filter carries the expected status, so a lost race shows up as a zero
// matched count, never as a partially applied write.
func (repo *MongoDispatchRepo) CompareAndSetBookingStatus(ctx context.Context, bookingID string, expected, next models.BookingStatus) (bool, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	filter := bson.M{"id": bookingID, "status": expected}
	update := bson.M{"$set": bson.M{"status": next, "updated_at": time.Now()}}
	res, err := repo.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("%w: error updating booking %s: %v", ErrUnavailable, bookingID, err)
	}
	return res.MatchedCount == 1, nil
}

// CompareAndSetDispatchRound claims the next fan-out round. The filter on
// the stored counter makes the claim a compare-and-swap: a matched count of
// zero means a concurrent dispatch claimed the round first.
func (repo *MongoDispatchRepo) CompareAndSetDispatchRound(ctx context.Context, bookingID string, expected, next int) (bool, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	filter := bson.M{"id": bookingID, "dispatch_round": expected}
	update := bson.M{"$set": bson.M{"dispatch_round": next, "updated_at": time.Now()}}
	res, err := repo.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("%w: error updating booking %s: %v", ErrUnavailable, bookingID, err)
	}
	return res.MatchedCount == 1, nil
}

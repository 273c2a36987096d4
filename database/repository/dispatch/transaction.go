package dispatchRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fixitquick/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// errLostRace aborts the accept transaction when a guard filter misses.
var errLostRace = errors.New("accept lost the status race")

// AcceptOffer runs the accept compare-and-swap pair inside one Mongo
// transaction: offer sent -> accepted, booking offer_outstanding -> assigned.
// If either filter misses the transaction aborts and nothing is written, so
// a losing accept can never leave an accepted offer on an assigned booking
// or vice versa.
func (repo *MongoDispatchRepo) AcceptOffer(ctx context.Context, offerID, bookingID, providerID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	session, err := repo.client.StartSession()
	if err != nil {
		return false, fmt.Errorf("%w: error starting session: %v", ErrUnavailable, err)
	}
	defer session.EndSession(ctx)

	now := time.Now()
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		offerFilter := bson.M{"id": offerID, "status": models.OfferSent}
		offerUpdate := bson.M{"$set": bson.M{"status": models.OfferAccepted, "resolved_at": now}}
		offerRes, err := repo.offerColl.UpdateOne(sc, offerFilter, offerUpdate)
		if err != nil {
			return nil, err
		}
		if offerRes.MatchedCount == 0 {
			return nil, errLostRace
		}

		bookingFilter := bson.M{"id": bookingID, "status": models.BookingOfferOutstanding}
		bookingUpdate := bson.M{"$set": bson.M{
			"status":               models.BookingAssigned,
			"assigned_provider_id": providerID,
			"accepted_offer_id":    offerID,
			"updated_at":           now,
		}}
		bookingRes, err := repo.bookingColl.UpdateOne(sc, bookingFilter, bookingUpdate)
		if err != nil {
			return nil, err
		}
		if bookingRes.MatchedCount == 0 {
			// Another offer already won the booking; abort rolls back the
			// offer write above.
			return nil, errLostRace
		}
		return nil, nil
	})
	if errors.Is(err, errLostRace) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: accept transaction for offer %s: %v", ErrUnavailable, offerID, err)
	}
	return true, nil
}

package dispatchRepo

import (
	"context"
	"fmt"
	"time"

	"fixitquick/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDispatchRepo implements DispatchRepository using MongoDB.
type MongoDispatchRepo struct {
	client      *mongo.Client
	bookingColl *mongo.Collection
	offerColl   *mongo.Collection
}

// NewMongoDispatchRepo constructs a new instance of MongoDispatchRepo.
func NewMongoDispatchRepo() DispatchRepository {
	client := database.MongoClient
	db := client.Database(database.DatabaseName)
	repo := &MongoDispatchRepo{
		client:      client,
		bookingColl: db.Collection("bookings"),
		offerColl:   db.Collection("job_offers"),
	}
	if err := repo.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("dispatch repo: %v", err))
	}
	return repo
}

// ensureIndexes creates indexes for frequently used fields in queries.
func (repo *MongoDispatchRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bookingIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
	}
	if _, err := repo.bookingColl.Indexes().CreateMany(ctx, bookingIdx); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	offerIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
		{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
	}
	if _, err := repo.offerColl.Indexes().CreateMany(ctx, offerIdx); err != nil {
		return fmt.Errorf("failed to create offer indexes: %w", err)
	}
	return nil
}

func opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

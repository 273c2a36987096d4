package providerRepo

import (
	"context"
	"fmt"
	"time"

	"fixitquick/database"
	"fixitquick/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo constructs a new instance of MongoProviderRepo.
func NewMongoProviderRepo() ProviderRepository {
	repo := &MongoProviderRepo{
		coll: database.MongoClient.Database(database.DatabaseName).Collection("providers"),
	}
	if err := repo.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("provider repo: %v", err))
	}
	return repo
}

// ensureIndexes creates indexes for frequently used fields in queries.
func (r *MongoProviderRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "serviceTypes", Value: 1}}},
		{Keys: bson.D{{Key: "availability.online", Value: 1}}},
		{Keys: bson.D{{Key: "profile.locationGeo", Value: "2dsphere"}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, providerID string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var provider models.Provider
	err := r.coll.FindOne(ctx, bson.M{"id": providerID}).Decode(&provider)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching provider with id %s: %w", providerID, err)
	}
	return &provider, nil
}

func (r *MongoProviderRepo) GetByIDWithProjection(ctx context.Context, providerID string, projection bson.M) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetProjection(projection)
	var provider models.Provider
	err := r.coll.FindOne(ctx, bson.M{"id": providerID}, opts).Decode(&provider)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching provider with id %s: %w", providerID, err)
	}
	return &provider, nil
}

func (r *MongoProviderRepo) Create(ctx context.Context, provider *models.Provider) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, provider); err != nil {
		return fmt.Errorf("error creating provider: %w", err)
	}
	return nil
}

// Search returns providers matching the criteria, nearest first. The
// $geoNear stage must come first in the pipeline.
func (r *MongoProviderRepo) Search(ctx context.Context, criteria ProviderSearchCriteria) ([]models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var pipeline mongo.Pipeline
	if criteria.MaxDistanceKm > 0 && len(criteria.LocationGeo.Coordinates) == 2 {
		pipeline = append(pipeline, bson.D{
			{Key: "$geoNear", Value: bson.D{
				{Key: "near", Value: bson.D{
					{Key: "type", Value: "Point"},
					{Key: "coordinates", Value: criteria.LocationGeo.Coordinates},
				}},
				{Key: "distanceField", Value: "distance"},
				{Key: "spherical", Value: true},
				{Key: "maxDistance", Value: criteria.MaxDistanceKm * 1000},
			}},
		})
	}

	matchFilter := bson.M{}
	if criteria.ServiceType != "" {
		matchFilter["serviceTypes"] = criteria.ServiceType
	}
	if criteria.OnlineOnly {
		matchFilter["availability.online"] = true
	}
	if len(criteria.ExcludeIDs) > 0 {
		matchFilter["id"] = bson.M{"$nin": criteria.ExcludeIDs}
	}
	if len(matchFilter) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchFilter}})
	}
	if criteria.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: criteria.Limit}})
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("provider search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []models.Provider
	for cursor.Next(ctx) {
		var p models.Provider
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("error decoding provider: %w", err)
		}
		providers = append(providers, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("provider cursor error: %w", err)
	}
	return providers, nil
}

func (r *MongoProviderRepo) SetOnline(ctx context.Context, providerID string, online bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"availability.online": online}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": providerID}, update)
	if err != nil {
		return fmt.Errorf("error updating provider %s: %w", providerID, err)
	}
	if res.MatchedCount == 0 {
		return ErrProviderNotFound
	}
	return nil
}

func (r *MongoProviderRepo) IncActiveJobs(ctx context.Context, providerID string, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$inc": bson.M{"availability.activeJobs": delta}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": providerID}, update); err != nil {
		return fmt.Errorf("error updating provider %s: %w", providerID, err)
	}
	return nil
}

func (r *MongoProviderRepo) IncCompletedJobs(ctx context.Context, providerID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$inc": bson.M{"completedJobs": 1}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": providerID}, update); err != nil {
		return fmt.Errorf("error updating provider %s: %w", providerID, err)
	}
	return nil
}

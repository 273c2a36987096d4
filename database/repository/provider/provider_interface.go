package providerRepo

import (
	"context"
	"errors"

	"fixitquick/models"

	"go.mongodb.org/mongo-driver/bson"
)

var ErrProviderNotFound = errors.New("provider repo: provider not found")

// ProviderSearchCriteria narrows candidate search to providers who can take
// the job right now.
type ProviderSearchCriteria struct {
	ServiceType   string
	LocationGeo   models.GeoPoint
	MaxDistanceKm float64
	OnlineOnly    bool
	ExcludeIDs    []string
	Limit         int
}

// ProviderRepository defines the interface for provider data access. The
// dispatch engine reads availability and tokens and bumps job counters; it
// never owns provider records.
type ProviderRepository interface {
	GetByID(ctx context.Context, providerID string) (*models.Provider, error)
	GetByIDWithProjection(ctx context.Context, providerID string, projection bson.M) (*models.Provider, error)
	Create(ctx context.Context, provider *models.Provider) error

	// Search returns providers matching the criteria, nearest first.
	Search(ctx context.Context, criteria ProviderSearchCriteria) ([]models.Provider, error)

	// SetOnline flips the provider's online flag.
	SetOnline(ctx context.Context, providerID string, online bool) error

	// IncActiveJobs adjusts the active job counter by delta (may be negative).
	IncActiveJobs(ctx context.Context, providerID string, delta int) error

	// IncCompletedJobs bumps the lifetime completed counter.
	IncCompletedJobs(ctx context.Context, providerID string) error
}

package dispatch

import (
	"context"
	"testing"

	providerRepo "fixitquick/database/repository/provider"
	"fixitquick/models"

	"go.mongodb.org/mongo-driver/bson"
)

type fakeProviderSearch struct {
	providers []models.Provider
	criteria  providerRepo.ProviderSearchCriteria
}

func (f *fakeProviderSearch) Search(ctx context.Context, criteria providerRepo.ProviderSearchCriteria) ([]models.Provider, error) {
	f.criteria = criteria
	return f.providers, nil
}

func (f *fakeProviderSearch) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	return nil, providerRepo.ErrProviderNotFound
}

func (f *fakeProviderSearch) GetByIDWithProjection(ctx context.Context, id string, projection bson.M) (*models.Provider, error) {
	return nil, providerRepo.ErrProviderNotFound
}

func (f *fakeProviderSearch) Create(ctx context.Context, p *models.Provider) error { return nil }

func (f *fakeProviderSearch) SetOnline(ctx context.Context, id string, online bool) error {
	return nil
}

func (f *fakeProviderSearch) IncActiveJobs(ctx context.Context, id string, delta int) error {
	return nil
}

func (f *fakeProviderSearch) IncCompletedJobs(ctx context.Context, id string) error { return nil }

func geo(lon, lat float64) models.GeoPoint {
	return models.GeoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

func testProvider(id string, lon, lat float64) models.Provider {
	return models.Provider{
		ID:           id,
		Profile:      models.ProviderProfile{LocationGeo: geo(lon, lat), Rating: 4.0},
		ServiceTypes: []string{"plumbing"},
		Availability: models.Availability{Online: true, MaxJobs: 3},
	}
}

func testBooking(urgency models.Urgency) *models.Booking {
	return &models.Booking{
		ID:          "b1",
		ServiceType: "plumbing",
		Urgency:     urgency,
		Location:    models.Location{Geo: geo(36.82, -1.29)},
	}
}

func TestSelectRanksCloserProviderHigher(t *testing.T) {
	near := testProvider("near", 36.821, -1.291)
	far := testProvider("far", 36.90, -1.35)
	repo := &fakeProviderSearch{providers: []models.Provider{far, near}}
	s := &DefaultCandidateSelector{ProviderRepo: repo, RadiusKm: 10, Limit: 5}

	cands, err := s.SelectCandidates(context.Background(), testBooking(models.UrgencyNormal), nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].ProviderID != "near" {
		t.Fatalf("expected near first, got %s", cands[0].ProviderID)
	}
	if cands[0].RankHint <= cands[1].RankHint {
		t.Fatal("rank hints not descending")
	}
}

func TestSelectSkipsProvidersAtCapacity(t *testing.T) {
	free := testProvider("free", 36.821, -1.291)
	busy := testProvider("busy", 36.821, -1.291)
	busy.Availability.ActiveJobs = busy.Availability.MaxJobs
	repo := &fakeProviderSearch{providers: []models.Provider{free, busy}}
	s := &DefaultCandidateSelector{ProviderRepo: repo, RadiusKm: 10, Limit: 5}

	cands, err := s.SelectCandidates(context.Background(), testBooking(models.UrgencyNormal), nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(cands) != 1 || cands[0].ProviderID != "free" {
		t.Fatalf("expected only free, got %+v", cands)
	}
}

func TestSelectWidensRadiusForUrgency(t *testing.T) {
	repo := &fakeProviderSearch{}
	s := &DefaultCandidateSelector{ProviderRepo: repo, RadiusKm: 10}

	if _, err := s.SelectCandidates(context.Background(), testBooking(models.UrgencyEmergency), nil); err != nil {
		t.Fatalf("select: %v", err)
	}
	if repo.criteria.MaxDistanceKm != 25 {
		t.Fatalf("expected emergency radius 25km, got %v", repo.criteria.MaxDistanceKm)
	}
	if !repo.criteria.OnlineOnly {
		t.Fatal("search must be online-only")
	}
}

func TestSelectPassesExclusions(t *testing.T) {
	repo := &fakeProviderSearch{}
	s := &DefaultCandidateSelector{ProviderRepo: repo, RadiusKm: 10}

	_, err := s.SelectCandidates(context.Background(), testBooking(models.UrgencyNormal), []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(repo.criteria.ExcludeIDs) != 2 {
		t.Fatalf("exclusions not forwarded: %+v", repo.criteria.ExcludeIDs)
	}
}

func TestVerifiedProviderOutranksUnverifiedAtSameDistance(t *testing.T) {
	verified := testProvider("verified", 36.821, -1.291)
	verified.Profile.Verified = true
	plain := testProvider("plain", 36.821, -1.291)
	repo := &fakeProviderSearch{providers: []models.Provider{plain, verified}}
	s := &DefaultCandidateSelector{ProviderRepo: repo, RadiusKm: 10, Limit: 5}

	cands, err := s.SelectCandidates(context.Background(), testBooking(models.UrgencyNormal), nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if cands[0].ProviderID != "verified" {
		t.Fatalf("expected verified first, got %s", cands[0].ProviderID)
	}
}

func TestHaversine(t *testing.T) {
	// Nairobi CBD to Westlands is roughly 3km.
	d := haversine(-1.2864, 36.8172, -1.2635, 36.8029)
	if d < 2 || d > 4 {
		t.Fatalf("unexpected distance %vkm", d)
	}
	if haversine(0, 0, 0, 0) != 0 {
		t.Fatal("zero distance expected")
	}
}

package dispatch

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	providerRepo "fixitquick/database/repository/provider"
	"fixitquick/models"
)

// DefaultCandidateSelector ranks online providers for a booking. Selection
// is a pure read: calling it twice for the same booking is safe.
type DefaultCandidateSelector struct {
	ProviderRepo providerRepo.ProviderRepository
	RadiusKm     float64
	Limit        int
}

// radiusFor widens the search for higher urgency tiers.
func (s *DefaultCandidateSelector) radiusFor(urgency models.Urgency) float64 {
	base := s.RadiusKm
	if base <= 0 {
		base = 10
	}
	switch urgency {
	case models.UrgencyUrgent:
		return base * 1.5
	case models.UrgencyEmergency:
		return base * 2.5
	default:
		return base
	}
}

// SelectCandidates searches, scores and ranks providers. Providers in the
// exclude list (already offered this booking) and providers at capacity are
// skipped. An empty result is a normal outcome, not an error.
func (s *DefaultCandidateSelector) SelectCandidates(ctx context.Context, booking *models.Booking, exclude []string) ([]models.Candidate, error) {
	criteria := providerRepo.ProviderSearchCriteria{
		ServiceType:   booking.ServiceType,
		LocationGeo:   booking.Location.Geo,
		MaxDistanceKm: s.radiusFor(booking.Urgency),
		OnlineOnly:    true,
		ExcludeIDs:    exclude,
	}
	providers, err := s.ProviderRepo.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("candidate search failed: %w", err)
	}
	if len(providers) == 0 {
		return []models.Candidate{}, nil
	}

	if len(booking.Location.Geo.Coordinates) < 2 {
		return nil, fmt.Errorf("invalid booking coordinates")
	}
	centerLon := booking.Location.Geo.Coordinates[0]
	centerLat := booking.Location.Geo.Coordinates[1]
	maxKm := s.radiusFor(booking.Urgency)

	const (
		MaxLocationPoints = 45.0
		VerifiedBonus     = 20.0
		MaxCompletedPts   = 20.0
		MaxRatingPts      = 15.0
	)

	computeLocationScore := func(distanceKm float64) float64 {
		if distanceKm >= maxKm {
			return 0
		}
		return MaxLocationPoints * (1 - distanceKm/maxKm)
	}
	computeCompletedScore := func(completed int) float64 {
		return math.Log10(float64(completed+1)) * MaxCompletedPts / math.Log10(101)
	}
	computeRatingScore := func(rating float64) float64 {
		if rating > 5 {
			rating = 5
		}
		return (rating / 5) * MaxRatingPts
	}

	type scoreData struct {
		ProviderID string
		TotalScore float64
	}

	resultsCh := make(chan scoreData, len(providers))
	var wg sync.WaitGroup

	for _, p := range providers {
		if p.Availability.AtCapacity() {
			continue
		}
		wg.Add(1)
		go func(p models.Provider) {
			defer wg.Done()
			var provLat, provLon float64
			if len(p.Profile.LocationGeo.Coordinates) >= 2 {
				provLon = p.Profile.LocationGeo.Coordinates[0]
				provLat = p.Profile.LocationGeo.Coordinates[1]
			}
			distanceKm := haversine(centerLat, centerLon, provLat, provLon)
			locScore := computeLocationScore(distanceKm)
			var verifiedScore float64
			if p.Profile.Verified {
				verifiedScore = VerifiedBonus
			}
			compScore := computeCompletedScore(p.CompletedJobs)
			ratingScore := computeRatingScore(p.Profile.Rating)

			resultsCh <- scoreData{
				ProviderID: p.ID,
				TotalScore: locScore + verifiedScore + compScore + ratingScore,
			}
		}(p)
	}

	wg.Wait()
	close(resultsCh)

	var scores []scoreData
	for sd := range resultsCh {
		scores = append(scores, sd)
	}

	sort.Slice(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	limit := s.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(scores) > limit {
		scores = scores[:limit]
	}

	candidates := make([]models.Candidate, 0, len(scores))
	for _, sd := range scores {
		candidates = append(candidates, models.Candidate{
			ProviderID: sd.ProviderID,
			RankHint:   sd.TotalScore,
		})
	}
	return candidates, nil
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLon := (lon2 - lon1) * (math.Pi / 180)
	lat1Rad := lat1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

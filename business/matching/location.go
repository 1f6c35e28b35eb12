package matching

import (
	"math"

	"agriMandi/domain"
)

// LocationFilter is the hard pre-scoring filter: geographically or
// administratively incompatible candidates are discarded before any weighted
// scoring runs.
type LocationFilter struct {
	maxDistanceKm    float64
	allowCrossRegion bool
}

func NewLocationFilter(maxDistanceKm float64, allowCrossRegion bool) LocationFilter {
	if maxDistanceKm <= 0 {
		maxDistanceKm = defaultMaxDistanceKm
	}
	return LocationFilter{
		maxDistanceKm:    maxDistanceKm,
		allowCrossRegion: allowCrossRegion,
	}
}

// Compatible reports whether any of the requirement's delivery locations can
// be served from the availability's location: same registered location, or
// within the max great-circle distance, with cross-state pairs additionally
// requiring the cross-region toggle. A non-empty allowedStates list restricts
// the offer to those states regardless of distance.
func (f LocationFilter) Compatible(reqLocations []domain.LocationPoint, allowedStates []string, offer domain.LocationPoint) bool {
	if len(allowedStates) > 0 && !stateAllowed(allowedStates, offer.StateCode) {
		return false
	}

	for _, loc := range reqLocations {
		if loc.SameRegisteredLocation(offer) {
			return true
		}

		if !loc.SameState(offer) && !f.allowCrossRegion {
			continue
		}

		if HaversineKm(loc.Latitude, loc.Longitude, offer.Latitude, offer.Longitude) <= f.maxDistanceKm {
			return true
		}
	}

	return false
}

func stateAllowed(allowed []string, state string) bool {
	for _, s := range allowed {
		if s == state {
			return true
		}
	}
	return false
}

// ClosestDistanceKm is used by the delivery sub-score; returns +Inf when the
// requirement carries no locations.
func (f LocationFilter) ClosestDistanceKm(reqLocations []domain.LocationPoint, offer domain.LocationPoint) float64 {
	best := math.Inf(1)
	for _, loc := range reqLocations {
		if loc.SameRegisteredLocation(offer) {
			return 0
		}
		d := HaversineKm(loc.Latitude, loc.Longitude, offer.Latitude, offer.Longitude)
		if d < best {
			best = d
		}
	}
	return best
}

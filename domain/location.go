package domain

// LocationPoint is a delivery location snapshot embedded on requirements and
// availabilities so the location pre-filter never needs an extra lookup.
type LocationPoint struct {
	LocationID  uint64  `json:"location_id"`
	Name        string  `json:"name"`
	StateCode   string  `json:"state_code"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (l LocationPoint) SameRegisteredLocation(other LocationPoint) bool {
	return l.LocationID != 0 && l.LocationID == other.LocationID
}

func (l LocationPoint) SameState(other LocationPoint) bool {
	return l.StateCode != "" && l.StateCode == other.StateCode
}

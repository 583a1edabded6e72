package domain

import "math"

// CompassDirection is one of the 16 named compass sectors.
type CompassDirection struct {
	Name string `json:"name"` // "North-Northeast"
	Code string `json:"code"` // "NNE"
}

// None is the zero direction, used before any announcement has been made.
var None = CompassDirection{}

var compassRose = [16]CompassDirection{
	{"North", "N"},
	{"North-Northeast", "NNE"},
	{"Northeast", "NE"},
	{"East-Northeast", "ENE"},
	{"East", "E"},
	{"East-Southeast", "ESE"},
	{"Southeast", "SE"},
	{"South-Southeast", "SSE"},
	{"South", "S"},
	{"South-Southwest", "SSW"},
	{"Southwest", "SW"},
	{"West-Southwest", "WSW"},
	{"West", "W"},
	{"West-Northwest", "WNW"},
	{"Northwest", "NW"},
	{"North-Northwest", "NNW"},
}

// CompassFromBearing maps a bearing in degrees to its 16-point sector.
// Sectors are 22.5 degrees wide and centered on the cardinal headings, so a
// bearing of exactly 11.25 rounds into the next sector.
func CompassFromBearing(bearing float64) CompassDirection {
	idx := int(math.Round(bearing/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassRose[idx]
}

package domain

import "fmt"

// RouteSource identifies which backend produced a route.
type RouteSource string

const (
	RouteSourceOSRM        RouteSource = "osrm"
	RouteSourceGraphHopper RouteSource = "graphhopper"
	RouteSourceDirect      RouteSource = "direct" // straight-line fallback
)

// RouteResult is a normalized route regardless of which backend produced it.
// Geometry is in travel order and always ends at the destination.
type RouteResult struct {
	Geometry        Track       `json:"geometry"`
	Destination     Coordinate  `json:"destination"`
	DestinationName string      `json:"destination_name,omitempty"`
	DistanceKm      float64     `json:"distance_km"`
	DurationMinutes float64     `json:"duration_minutes"`
	Source          RouteSource `json:"source"`
}

// NavState is the navigation engine's state for the active route.
type NavState string

const (
	NavIdle       NavState = "idle"
	NavNavigating NavState = "navigating"
	NavReached    NavState = "reached"
)

// RouteState is the single active route being navigated.
type RouteState struct {
	Route   RouteResult `json:"route"`
	Started bool        `json:"started"`
	Reached bool        `json:"reached"`
}

// DirectionInfo is the live guidance derived from the current position and
// the active destination. Recomputed on every position update, never stored.
type DirectionInfo struct {
	BearingDegrees int              `json:"bearing_degrees"`
	DistanceKm     float64          `json:"distance_km"`
	Direction      CompassDirection `json:"direction"`
	Instruction    string           `json:"instruction"`
}

// Instruction renders the "Head <direction> for <distance>" guidance line.
func Instruction(dir CompassDirection, distanceKm float64) string {
	return fmt.Sprintf("Head %s for %s", dir.Name, FormatDistance(distanceKm))
}

// FormatDistance renders a distance in meters below 1 km and in kilometers
// to one decimal above.
func FormatDistance(distanceKm float64) string {
	if distanceKm < 1 {
		return fmt.Sprintf("%d meters", int(distanceKm*1000+0.5))
	}
	return fmt.Sprintf("%.1f kilometers", distanceKm)
}

// AnnouncementState tracks what was last spoken so updates can be throttled.
// LastAnnouncedAtMs is non-decreasing for the lifetime of a route.
type AnnouncementState struct {
	LastDirection     CompassDirection `json:"last_direction"`
	LastAnnouncedAtMs int64            `json:"last_announced_at_ms"`
}

// SpeechOptions tune the text-to-speech playback on the client.
type SpeechOptions struct {
	Rate   float64 `json:"rate,omitempty"`
	Pitch  float64 `json:"pitch,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

// Speech presets mirroring the dashboard voice profile: summaries are read
// slowly, alerts slightly fast and high-pitched.
var (
	SpeechSummary = SpeechOptions{Rate: 0.8}
	SpeechUpdate  = SpeechOptions{Rate: 0.9}
	SpeechAlert   = SpeechOptions{Rate: 1.1, Pitch: 1.2, Volume: 1.0}
)

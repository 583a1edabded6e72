package domain

// Coordinate is a geographic position (WGS 84), degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within the WGS 84 range.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Track is an ordered sequence of coordinates in travel order.
type Track []Coordinate

// SampleSource identifies how a location sample was obtained.
type SampleSource string

const (
	SourceSensor  SampleSource = "sensor"  // high-accuracy GPS fix
	SourceNetwork SampleSource = "network" // IP geolocation
	SourceManual  SampleSource = "manual"  // user-reported
	SourceDevice  SampleSource = "device"  // remote tracker feed
)

// LocationSample is one observed position. AccuracyMeters is zero when the
// source cannot estimate it (IP geolocation, manual reports).
type LocationSample struct {
	Coordinate
	AccuracyMeters float64      `json:"accuracy_meters,omitempty"`
	Source         SampleSource `json:"source"`
	ObservedAtMs   int64        `json:"observed_at_ms"`
}

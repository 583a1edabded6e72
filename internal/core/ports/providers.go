package ports

import (
	"context"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// FixProvider obtains a single high-accuracy position fix from the tracked
// device's sensor. Implementations must respect the timeout and never return
// a cached fix older than maxAge (zero maxAge means a fresh fix only).
// Failures are reported as *domain.SensorError.
type FixProvider interface {
	RequestFix(ctx context.Context, timeout time.Duration, maxAge time.Duration) (domain.LocationSample, error)
}

// NetworkLocator resolves an approximate position without the sensor,
// typically from the caller's IP address.
type NetworkLocator interface {
	Locate(ctx context.Context) (domain.LocationSample, error)
}

// Place is a geocoder candidate.
type Place struct {
	Coordinate  domain.Coordinate
	DisplayName string
}

// Geocoder converts between free-text addresses and coordinates.
type Geocoder interface {
	// Search forward-geocodes a query, best candidates first.
	Search(ctx context.Context, query string) ([]Place, error)
	// Reverse resolves a coordinate to a human-readable display name.
	Reverse(ctx context.Context, c domain.Coordinate) (Place, error)
}

// RoutingBackend computes a walking route between two coordinates.
// Responses are already normalized to domain.RouteResult by the adapter.
type RoutingBackend interface {
	Name() domain.RouteSource
	WalkingRoute(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error)
}

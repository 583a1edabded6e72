package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
)

// Walking pace assumed when synthesizing a straight-line route: 5 km/h,
// i.e. 12 minutes per kilometer.
const walkMinutesPerKm = 12

const geocodeCacheTTL = 24 * time.Hour

// RouteService acquires walking routes, preferring real road geometry and
// degrading through the backend chain to a straight line.
type RouteService struct {
	geocoder ports.Geocoder
	backends []ports.RoutingBackend
	cache    ports.CacheService
}

// NewRouteService creates a RouteService. Backends are tried in order.
func NewRouteService(geocoder ports.Geocoder, backends []ports.RoutingBackend, cache ports.CacheService) *RouteService {
	return &RouteService{geocoder: geocoder, backends: backends, cache: cache}
}

// Geocode forward-geocodes a free-text destination, returning the top-ranked
// candidate. Results are cached: addresses are looked up repeatedly while a
// user refines their destination.
func (s *RouteService) Geocode(ctx context.Context, query string) (ports.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ports.Place{}, fmt.Errorf("%w: empty query", domain.ErrGeocodeNotFound)
	}

	cacheKey := "geo:fwd:" + strings.ToLower(query)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var place ports.Place
			if err := json.Unmarshal(data, &place); err == nil {
				return place, nil
			}
		}
	}

	places, err := s.geocoder.Search(ctx, query)
	if err != nil {
		return ports.Place{}, fmt.Errorf("%w: %w", domain.ErrGeocodeNotFound, err)
	}
	if len(places) == 0 {
		return ports.Place{}, domain.ErrGeocodeNotFound
	}

	top := places[0]
	if s.cache != nil {
		if data, err := json.Marshal(top); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, geocodeCacheTTL)
		}
	}
	return top, nil
}

// FindRoute returns a walking route from start to end. It never fails: when
// every backend is down it synthesizes a straight-line route, so callers
// always get usable geometry.
func (s *RouteService) FindRoute(ctx context.Context, start, end domain.Coordinate) domain.RouteResult {
	for _, backend := range s.backends {
		route, err := backend.WalkingRoute(ctx, start, end)
		if err != nil {
			slog.Warn("routing backend failed, trying next",
				"backend", backend.Name(), "error", err)
			continue
		}
		route.Source = backend.Name()
		if len(route.Geometry) >= 2 {
			// The drawn geometry's endpoint is the destination we navigate
			// to, which may be snapped off the requested coordinate.
			route.Destination = route.Geometry[len(route.Geometry)-1]
			return route
		}
		slog.Warn("routing backend returned degenerate geometry", "backend", backend.Name())
	}
	return s.directRoute(start, end)
}

func (s *RouteService) directRoute(start, end domain.Coordinate) domain.RouteResult {
	distance := geospatial.DistanceKm(start.Lat, start.Lon, end.Lat, end.Lon)
	return domain.RouteResult{
		Geometry:        domain.Track{start, end},
		Destination:     end,
		DistanceKm:      distance,
		DurationMinutes: math.Round(distance * walkMinutesPerKm),
		Source:          domain.RouteSourceDirect,
	}
}

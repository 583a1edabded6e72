package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

type mockBackend struct {
	name    domain.RouteSource
	routeFn func(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error)
}

func (m *mockBackend) Name() domain.RouteSource { return m.name }

func (m *mockBackend) WalkingRoute(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, start, end)
	}
	return domain.RouteResult{}, errors.New("not implemented")
}

var (
	routeStart = domain.Coordinate{Lat: 27.7172, Lon: 85.3240}
	routeEnd   = domain.Coordinate{Lat: 27.7000, Lon: 85.3000}
)

func TestGeocode_TopCandidate(t *testing.T) {
	geocoder := &mockGeocoder{
		searchFn: func(ctx context.Context, query string) ([]ports.Place, error) {
			return []ports.Place{
				{Coordinate: domain.Coordinate{Lat: 27.7, Lon: 85.3}, DisplayName: "Patan Durbar Square"},
				{Coordinate: domain.Coordinate{Lat: 28.0, Lon: 84.0}, DisplayName: "Somewhere else"},
			}, nil
		},
	}
	svc := usecases.NewRouteService(geocoder, nil, nil)

	place, err := svc.Geocode(context.Background(), "patan durbar square")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.DisplayName != "Patan Durbar Square" {
		t.Errorf("expected the top candidate, got %q", place.DisplayName)
	}
}

func TestGeocode_NotFound(t *testing.T) {
	geocoder := &mockGeocoder{
		searchFn: func(ctx context.Context, query string) ([]ports.Place, error) {
			return nil, nil
		},
	}
	svc := usecases.NewRouteService(geocoder, nil, nil)

	_, err := svc.Geocode(context.Background(), "nowhere at all")
	if !errors.Is(err, domain.ErrGeocodeNotFound) {
		t.Errorf("expected ErrGeocodeNotFound, got %v", err)
	}
}

func TestGeocode_EmptyQuery(t *testing.T) {
	svc := usecases.NewRouteService(&mockGeocoder{}, nil, nil)
	_, err := svc.Geocode(context.Background(), "   ")
	if !errors.Is(err, domain.ErrGeocodeNotFound) {
		t.Errorf("expected ErrGeocodeNotFound for blank query, got %v", err)
	}
}

func TestGeocode_CachesResults(t *testing.T) {
	calls := 0
	geocoder := &mockGeocoder{
		searchFn: func(ctx context.Context, query string) ([]ports.Place, error) {
			calls++
			return []ports.Place{{DisplayName: "Boudhanath"}}, nil
		},
	}
	svc := usecases.NewRouteService(geocoder, nil, newMockCache())

	for i := 0; i < 3; i++ {
		if _, err := svc.Geocode(context.Background(), "Boudhanath"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 geocoder call, got %d", calls)
	}
}

func TestFindRoute_FirstBackendWins(t *testing.T) {
	osrm := &mockBackend{
		name: domain.RouteSourceOSRM,
		routeFn: func(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
			return domain.RouteResult{
				Geometry:   domain.Track{start, {Lat: 27.71, Lon: 85.31}, end},
				DistanceKm: 2.5, DurationMinutes: 30,
			}, nil
		},
	}
	hopper := &mockBackend{name: domain.RouteSourceGraphHopper}
	svc := usecases.NewRouteService(nil, []ports.RoutingBackend{osrm, hopper}, nil)

	route := svc.FindRoute(context.Background(), routeStart, routeEnd)
	if route.Source != domain.RouteSourceOSRM {
		t.Errorf("expected osrm, got %s", route.Source)
	}
	if route.Destination != routeEnd {
		t.Errorf("expected destination %v, got %v", routeEnd, route.Destination)
	}
}

func TestFindRoute_FallsBackToSecondBackend(t *testing.T) {
	osrm := &mockBackend{
		name: domain.RouteSourceOSRM,
		routeFn: func(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
			return domain.RouteResult{}, errors.New("osrm down")
		},
	}
	hopper := &mockBackend{
		name: domain.RouteSourceGraphHopper,
		routeFn: func(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
			return domain.RouteResult{
				Geometry:   domain.Track{start, end},
				DistanceKm: 2.6, DurationMinutes: 31,
			}, nil
		},
	}
	svc := usecases.NewRouteService(nil, []ports.RoutingBackend{osrm, hopper}, nil)

	route := svc.FindRoute(context.Background(), routeStart, routeEnd)
	if route.Source != domain.RouteSourceGraphHopper {
		t.Errorf("expected graphhopper, got %s", route.Source)
	}
}

func TestFindRoute_DirectFallbackNeverFails(t *testing.T) {
	down := func(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
		return domain.RouteResult{}, errors.New("down")
	}
	backends := []ports.RoutingBackend{
		&mockBackend{name: domain.RouteSourceOSRM, routeFn: down},
		&mockBackend{name: domain.RouteSourceGraphHopper, routeFn: down},
	}
	svc := usecases.NewRouteService(nil, backends, nil)

	route := svc.FindRoute(context.Background(), routeStart, routeEnd)
	if route.Source != domain.RouteSourceDirect {
		t.Fatalf("expected direct fallback, got %s", route.Source)
	}
	if len(route.Geometry) != 2 {
		t.Errorf("expected 2-point geometry, got %d", len(route.Geometry))
	}
	if route.Geometry[0] != routeStart || route.Geometry[1] != routeEnd {
		t.Errorf("expected straight line from start to end, got %v", route.Geometry)
	}

	// Duration from the assumed walking pace: round(distance * 12).
	wantMinutes := math.Round(route.DistanceKm * 12)
	if route.DurationMinutes != wantMinutes {
		t.Errorf("expected %f minutes, got %f", wantMinutes, route.DurationMinutes)
	}
}

func TestFindRoute_DegenerateGeometrySkipsBackend(t *testing.T) {
	osrm := &mockBackend{
		name: domain.RouteSourceOSRM,
		routeFn: func(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
			return domain.RouteResult{Geometry: domain.Track{start}}, nil
		},
	}
	svc := usecases.NewRouteService(nil, []ports.RoutingBackend{osrm}, nil)

	route := svc.FindRoute(context.Background(), routeStart, routeEnd)
	if route.Source != domain.RouteSourceDirect {
		t.Errorf("expected direct fallback after degenerate geometry, got %s", route.Source)
	}
}

func TestFindRoute_NoBackends(t *testing.T) {
	svc := usecases.NewRouteService(nil, nil, nil)
	route := svc.FindRoute(context.Background(), routeStart, routeEnd)
	if route.Source != domain.RouteSourceDirect {
		t.Errorf("expected direct route with no backends, got %s", route.Source)
	}
}

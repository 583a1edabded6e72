// Package routing holds the walking-route backends tried in fallback order.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

const backendTimeout = 10 * time.Second

// OSRM implements ports.RoutingBackend against the OSRM HTTP API using the
// foot profile. OSRM reports distance in meters and duration in seconds.
type OSRM struct {
	baseURL string
	client  *http.Client
}

func NewOSRM(baseURL string) *OSRM {
	return &OSRM{
		baseURL: baseURL,
		client:  &http.Client{Timeout: backendTimeout},
	}
}

func (o *OSRM) Name() domain.RouteSource { return domain.RouteSourceOSRM }

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

func (o *OSRM) WalkingRoute(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
	route, err := o.walkingRoute(ctx, start, end)
	countRoute(o.Name(), err)
	return route, err
}

func (o *OSRM) walkingRoute(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
	// OSRM wants lon,lat pairs in the path.
	url := fmt.Sprintf("%s/route/v1/foot/%f,%f;%f,%f?overview=full&geometries=geojson",
		o.baseURL, start.Lon, start.Lat, end.Lon, end.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.RouteResult{}, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("osrm: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RouteResult{}, fmt.Errorf("osrm: unexpected status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.RouteResult{}, fmt.Errorf("osrm: decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return domain.RouteResult{}, fmt.Errorf("osrm: no route (code %q)", body.Code)
	}

	r := body.Routes[0]
	return domain.RouteResult{
		Geometry:        lonLatTrack(r.Geometry.Coordinates),
		DistanceKm:      r.Distance / 1000,
		DurationMinutes: math.Round(r.Duration / 60),
	}, nil
}

func countRoute(source domain.RouteSource, err error) {
	if err != nil {
		metrics.RoutingBackendErrors.WithLabelValues(string(source)).Inc()
		return
	}
	metrics.RoutesComputed.WithLabelValues(string(source)).Inc()
}

// lonLatTrack converts GeoJSON (lon,lat) pairs into a Track.
func lonLatTrack(coords [][]float64) domain.Track {
	track := make(domain.Track, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		track = append(track, domain.Coordinate{Lat: c[1], Lon: c[0]})
	}
	return track
}

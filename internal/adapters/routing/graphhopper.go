package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// GraphHopper implements ports.RoutingBackend against the GraphHopper
// routing API with the foot vehicle. GraphHopper reports distance in meters
// and time in milliseconds.
type GraphHopper struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGraphHopper(baseURL, apiKey string) *GraphHopper {
	return &GraphHopper{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: backendTimeout},
	}
}

func (g *GraphHopper) Name() domain.RouteSource { return domain.RouteSourceGraphHopper }

type graphHopperResponse struct {
	Paths []struct {
		Distance float64 `json:"distance"`
		Time     float64 `json:"time"`
		Points   struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"points"`
	} `json:"paths"`
}

func (g *GraphHopper) WalkingRoute(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
	route, err := g.walkingRoute(ctx, start, end)
	countRoute(g.Name(), err)
	return route, err
}

func (g *GraphHopper) walkingRoute(ctx context.Context, start, end domain.Coordinate) (domain.RouteResult, error) {
	q := url.Values{}
	// GraphHopper points are lat,lng; repeated for start then end.
	q.Add("point", fmt.Sprintf("%f,%f", start.Lat, start.Lon))
	q.Add("point", fmt.Sprintf("%f,%f", end.Lat, end.Lon))
	q.Set("vehicle", "foot")
	q.Set("points_encoded", "false")
	if g.apiKey != "" {
		q.Set("key", g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/1/route?"+q.Encode(), nil)
	if err != nil {
		return domain.RouteResult{}, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return domain.RouteResult{}, fmt.Errorf("graphhopper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RouteResult{}, fmt.Errorf("graphhopper: unexpected status %d", resp.StatusCode)
	}

	var body graphHopperResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.RouteResult{}, fmt.Errorf("graphhopper: decode: %w", err)
	}
	if len(body.Paths) == 0 {
		return domain.RouteResult{}, fmt.Errorf("graphhopper: no route")
	}

	p := body.Paths[0]
	return domain.RouteResult{
		Geometry:        lonLatTrack(p.Points.Coordinates),
		DistanceKm:      p.Distance / 1000,
		DurationMinutes: math.Round(p.Time / 1000 / 60),
	}, nil
}

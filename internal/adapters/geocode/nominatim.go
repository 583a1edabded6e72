// Package geocode talks to a Nominatim-compatible geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

const defaultTimeout = 8 * time.Second

// Nominatim implements ports.Geocoder against the OpenStreetMap Nominatim
// HTTP API. Nominatim returns coordinates as JSON strings, not numbers.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// New builds a client for the given base URL, e.g. https://nominatim.openstreetmap.org.
// Nominatim's usage policy requires an identifying User-Agent.
func New(baseURL, userAgent string) *Nominatim {
	return &Nominatim{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: defaultTimeout},
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search forward-geocodes a free-text query, best candidates first.
func (n *Nominatim) Search(ctx context.Context, query string) ([]ports.Place, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", query)

	var results []nominatimPlace
	if err := n.get(ctx, n.baseURL+"/search?"+q.Encode(), &results); err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}

	places := make([]ports.Place, 0, len(results))
	for _, r := range results {
		p, err := toPlace(r)
		if err != nil {
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

// Reverse resolves a coordinate to its display name.
func (n *Nominatim) Reverse(ctx context.Context, c domain.Coordinate) (ports.Place, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))

	var result nominatimPlace
	if err := n.get(ctx, n.baseURL+"/reverse?"+q.Encode(), &result); err != nil {
		return ports.Place{}, fmt.Errorf("nominatim reverse: %w", err)
	}
	if result.DisplayName == "" {
		return ports.Place{}, domain.ErrGeocodeNotFound
	}
	return toPlace(result)
}

func (n *Nominatim) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toPlace(r nominatimPlace) (ports.Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return ports.Place{}, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return ports.Place{}, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}
	return ports.Place{
		Coordinate:  domain.Coordinate{Lat: lat, Lon: lon},
		DisplayName: r.DisplayName,
	}, nil
}

// Package iplocate resolves an approximate position from the server's
// public IP address. Accuracy is city-level at best, so samples are stamped
// with a wide accuracy radius.
package iplocate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

const (
	defaultTimeout = 8 * time.Second

	// ipAccuracyMeters is the nominal accuracy of an IP geolocation fix.
	ipAccuracyMeters = 5000
)

// IPAPI implements ports.NetworkLocator against the ipapi.co JSON endpoint.
type IPAPI struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *IPAPI {
	return &IPAPI{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

type ipapiResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Error     bool    `json:"error"`
	Reason    string  `json:"reason"`
}

func (l *IPAPI) Locate(ctx context.Context) (domain.LocationSample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/json/", nil)
	if err != nil {
		return domain.LocationSample{}, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return domain.LocationSample{}, fmt.Errorf("%w: %v", domain.ErrNetworkLocationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.LocationSample{}, fmt.Errorf("%w: status %d", domain.ErrNetworkLocationUnavailable, resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.LocationSample{}, fmt.Errorf("%w: %v", domain.ErrNetworkLocationUnavailable, err)
	}
	if body.Error {
		return domain.LocationSample{}, fmt.Errorf("%w: %s", domain.ErrNetworkLocationUnavailable, body.Reason)
	}

	sample := domain.LocationSample{
		Coordinate:     domain.Coordinate{Lat: body.Latitude, Lon: body.Longitude},
		AccuracyMeters: ipAccuracyMeters,
		Source:         domain.SourceNetwork,
		ObservedAtMs:   time.Now().UnixMilli(),
	}
	if !sample.Valid() {
		return domain.LocationSample{}, fmt.Errorf("%w: out-of-range coordinate", domain.ErrNetworkLocationUnavailable)
	}
	return sample, nil
}

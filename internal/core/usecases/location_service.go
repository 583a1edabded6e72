package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// LocationConfig tunes the high-accuracy acquisition loop. The zero value is
// filled with the defaults the original hardware shipped with.
type LocationConfig struct {
	MaxAttempts        int
	FixTimeout         time.Duration
	GoodAccuracyMeters float64
	RetryAfterFix      time.Duration // delay after a successful but imprecise fix
	RetryAfterError    time.Duration // delay after a hard sensor error
}

func (c LocationConfig) withDefaults() LocationConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.FixTimeout <= 0 {
		c.FixTimeout = 15 * time.Second
	}
	if c.GoodAccuracyMeters <= 0 {
		c.GoodAccuracyMeters = 20
	}
	if c.RetryAfterFix <= 0 {
		c.RetryAfterFix = 1 * time.Second
	}
	if c.RetryAfterError <= 0 {
		c.RetryAfterError = 2 * time.Second
	}
	return c
}

// LocationService owns the current-location state and the acquisition
// fallback chain: bounded high-accuracy sensor retries, then IP geolocation.
type LocationService struct {
	sensor    ports.FixProvider
	network   ports.NetworkLocator
	geocoder  ports.Geocoder
	publisher ports.EventPublisher
	cache     ports.CacheService
	clock     ports.Clock
	cfg       LocationConfig

	mu      sync.RWMutex
	current *domain.LocationSample
}

// NewLocationService creates a LocationService. geocoder, publisher, and
// cache may be nil; the corresponding features degrade gracefully.
func NewLocationService(
	sensor ports.FixProvider,
	network ports.NetworkLocator,
	geocoder ports.Geocoder,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	clock ports.Clock,
	cfg LocationConfig,
) *LocationService {
	if clock == nil {
		clock = SystemClock()
	}
	return &LocationService{
		sensor:    sensor,
		network:   network,
		geocoder:  geocoder,
		publisher: publisher,
		cache:     cache,
		clock:     clock,
		cfg:       cfg.withDefaults(),
	}
}

// AcquireHighAccuracy requests sensor fixes until one is accurate enough or
// the attempt budget runs out, returning the best fix seen. A sensor error on
// the final attempt fails the whole acquisition even if an earlier attempt
// produced an imprecise fix.
func (s *LocationService) AcquireHighAccuracy(ctx context.Context) (domain.LocationSample, error) {
	var best *domain.LocationSample

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		sample, err := s.sensor.RequestFix(ctx, s.cfg.FixTimeout, 0)
		if err != nil {
			if attempt >= s.cfg.MaxAttempts {
				var serr *domain.SensorError
				if !errors.As(err, &serr) {
					serr = &domain.SensorError{Code: domain.SensorUnknown, Err: err}
				}
				return domain.LocationSample{}, serr
			}
			slog.Warn("sensor fix failed, retrying",
				"attempt", attempt, "max_attempts", s.cfg.MaxAttempts, "error", err)
			if serr := s.clock.Sleep(ctx, s.cfg.RetryAfterError); serr != nil {
				return domain.LocationSample{}, serr
			}
			continue
		}

		if best == nil || sample.AccuracyMeters < best.AccuracyMeters {
			best = &sample
		}
		slog.Debug("sensor fix",
			"attempt", attempt, "accuracy_m", sample.AccuracyMeters)

		if sample.AccuracyMeters < s.cfg.GoodAccuracyMeters || attempt >= s.cfg.MaxAttempts {
			break
		}
		if serr := s.clock.Sleep(ctx, s.cfg.RetryAfterFix); serr != nil {
			return domain.LocationSample{}, serr
		}
	}

	best.Source = domain.SourceSensor
	best.ObservedAtMs = s.clock.Now().UnixMilli()
	s.Update(*best)

	if s.publisher != nil {
		if err := s.publisher.PublishTelemetry(ctx, *best); err != nil {
			slog.Warn("telemetry publish failed", "error", err)
		}
	}
	return *best, nil
}

// AcquireFromNetwork resolves an approximate position from IP geolocation.
func (s *LocationService) AcquireFromNetwork(ctx context.Context) (domain.LocationSample, error) {
	if s.network == nil {
		return domain.LocationSample{}, domain.ErrNetworkLocationUnavailable
	}
	sample, err := s.network.Locate(ctx)
	if err != nil {
		return domain.LocationSample{}, fmt.Errorf("%w: %w", domain.ErrNetworkLocationUnavailable, err)
	}
	if !sample.Valid() {
		return domain.LocationSample{}, domain.ErrNetworkLocationUnavailable
	}
	sample.Source = domain.SourceNetwork
	sample.ObservedAtMs = s.clock.Now().UnixMilli()
	s.Update(sample)
	return sample, nil
}

// Update records a new current location, last-write-wins.
func (s *LocationService) Update(sample domain.LocationSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &sample
}

// Current returns the most recent location sample, if any.
func (s *LocationService) Current() (domain.LocationSample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.LocationSample{}, false
	}
	return *s.current, true
}

// Describe reverse-geocodes a coordinate into a display name, cached for an
// hour since places don't move.
func (s *LocationService) Describe(ctx context.Context, c domain.Coordinate) (string, error) {
	if s.geocoder == nil {
		return "", errors.New("reverse geocoding not configured")
	}

	cacheKey := fmt.Sprintf("geo:rev:%.5f:%.5f", c.Lat, c.Lon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var place ports.Place
			if err := json.Unmarshal(data, &place); err == nil {
				return place.DisplayName, nil
			}
		}
	}

	place, err := s.geocoder.Reverse(ctx, c)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(place); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, time.Hour)
		}
	}
	return place.DisplayName, nil
}

package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/core/usecases"
)

// --- Fake clock ---

// fakeClock advances instantly on Sleep so retry loops run in microseconds.
type fakeClock struct {
	mu    sync.Mutex
	nowMs int64
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.UnixMilli(c.nowMs)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.nowMs += d.Milliseconds()
	return ctx.Err()
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowMs += d.Milliseconds()
}

// --- Mock ports ---

type mockFixProvider struct {
	requestFixFn func(ctx context.Context, timeout, maxAge time.Duration) (domain.LocationSample, error)
}

func (m *mockFixProvider) RequestFix(ctx context.Context, timeout, maxAge time.Duration) (domain.LocationSample, error) {
	if m.requestFixFn != nil {
		return m.requestFixFn(ctx, timeout, maxAge)
	}
	return domain.LocationSample{}, nil
}

type mockLocator struct {
	locateFn func(ctx context.Context) (domain.LocationSample, error)
}

func (m *mockLocator) Locate(ctx context.Context) (domain.LocationSample, error) {
	if m.locateFn != nil {
		return m.locateFn(ctx)
	}
	return domain.LocationSample{}, nil
}

type mockGeocoder struct {
	searchFn  func(ctx context.Context, query string) ([]ports.Place, error)
	reverseFn func(ctx context.Context, c domain.Coordinate) (ports.Place, error)
}

func (m *mockGeocoder) Search(ctx context.Context, query string) ([]ports.Place, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

func (m *mockGeocoder) Reverse(ctx context.Context, c domain.Coordinate) (ports.Place, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, c)
	}
	return ports.Place{}, nil
}

type mockPublisher struct {
	mu         sync.Mutex
	telemetry  []domain.LocationSample
	directions []domain.DirectionInfo
	notices    []string
}

func (m *mockPublisher) PublishTelemetry(ctx context.Context, s domain.LocationSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.telemetry = append(m.telemetry, s)
	return nil
}

func (m *mockPublisher) PublishDirection(ctx context.Context, info domain.DirectionInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directions = append(m.directions, info)
	return nil
}

func (m *mockPublisher) PublishNotice(ctx context.Context, kind, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, kind)
	return nil
}

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Tests ---

func sampleAt(lat, lon, accuracy float64) domain.LocationSample {
	return domain.LocationSample{
		Coordinate:     domain.Coordinate{Lat: lat, Lon: lon},
		AccuracyMeters: accuracy,
	}
}

func TestAcquireHighAccuracy_StopsWhenAccurateEnough(t *testing.T) {
	attempts := 0
	sensor := &mockFixProvider{
		requestFixFn: func(ctx context.Context, timeout, maxAge time.Duration) (domain.LocationSample, error) {
			attempts++
			if attempts == 1 {
				return sampleAt(27.7172, 85.3240, 25), nil
			}
			return sampleAt(27.7172, 85.3240, 15), nil
		},
	}
	clock := &fakeClock{nowMs: 1000}
	pub := &mockPublisher{}
	svc := usecases.NewLocationService(sensor, nil, nil, pub, nil, clock, usecases.LocationConfig{})

	got, err := svc.AcquireHighAccuracy(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if got.AccuracyMeters != 15 {
		t.Errorf("expected the 15 m fix, got %f", got.AccuracyMeters)
	}
	if got.Source != domain.SourceSensor {
		t.Errorf("expected sensor source, got %s", got.Source)
	}
	if len(clock.slept) != 1 {
		t.Errorf("expected one retry delay, got %d", len(clock.slept))
	}
	if len(pub.telemetry) != 1 {
		t.Errorf("expected one telemetry publish, got %d", len(pub.telemetry))
	}
}

func TestAcquireHighAccuracy_KeepsBestOfAllAttempts(t *testing.T) {
	accuracies := []float64{40, 30, 35}
	attempts := 0
	sensor := &mockFixProvider{
		requestFixFn: func(ctx context.Context, timeout, maxAge time.Duration) (domain.LocationSample, error) {
			s := sampleAt(27.7172, 85.3240, accuracies[attempts])
			attempts++
			return s, nil
		},
	}
	svc := usecases.NewLocationService(sensor, nil, nil, nil, nil, &fakeClock{}, usecases.LocationConfig{})

	got, err := svc.AcquireHighAccuracy(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected all 3 attempts, got %d", attempts)
	}
	if got.AccuracyMeters != 30 {
		t.Errorf("expected the best fix (30 m), got %f", got.AccuracyMeters)
	}
}

func TestAcquireHighAccuracy_FinalAttemptErrorFails(t *testing.T) {
	attempts := 0
	sensor := &mockFixProvider{
		requestFixFn: func(ctx context.Context, timeout, maxAge time.Duration) (domain.LocationSample, error) {
			attempts++
			if attempts < 3 {
				return sampleAt(27.7172, 85.3240, 50), nil
			}
			return domain.LocationSample{}, &domain.SensorError{Code: domain.SensorTimeout}
		},
	}
	svc := usecases.NewLocationService(sensor, nil, nil, nil, nil, &fakeClock{}, usecases.LocationConfig{})

	_, err := svc.AcquireHighAccuracy(context.Background())
	if err == nil {
		t.Fatal("expected error when the final attempt fails")
	}
	var serr *domain.SensorError
	if !errors.As(err, &serr) || serr.Code != domain.SensorTimeout {
		t.Errorf("expected a timeout sensor error, got %v", err)
	}
}

func TestAcquireHighAccuracy_WrapsUnknownErrors(t *testing.T) {
	sensor := &mockFixProvider{
		requestFixFn: func(ctx context.Context, timeout, maxAge time.Duration) (domain.LocationSample, error) {
			return domain.LocationSample{}, errors.New("wire fault")
		},
	}
	svc := usecases.NewLocationService(sensor, nil, nil, nil, nil, &fakeClock{}, usecases.LocationConfig{MaxAttempts: 1})

	_, err := svc.AcquireHighAccuracy(context.Background())
	var serr *domain.SensorError
	if !errors.As(err, &serr) || serr.Code != domain.SensorUnknown {
		t.Errorf("expected an unknown sensor error, got %v", err)
	}
}

func TestAcquireHighAccuracy_RetryDelays(t *testing.T) {
	attempts := 0
	sensor := &mockFixProvider{
		requestFixFn: func(ctx context.Context, timeout, maxAge time.Duration) (domain.LocationSample, error) {
			attempts++
			if attempts == 1 {
				return domain.LocationSample{}, &domain.SensorError{Code: domain.SensorPositionUnavailable}
			}
			if attempts == 2 {
				return sampleAt(27.7172, 85.3240, 50), nil
			}
			return sampleAt(27.7172, 85.3240, 10), nil
		},
	}
	clock := &fakeClock{}
	svc := usecases.NewLocationService(sensor, nil, nil, nil, nil, clock, usecases.LocationConfig{})

	if _, err := svc.AcquireHighAccuracy(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 2 s after the error, then 1 s after the imprecise fix.
	if len(clock.slept) != 2 {
		t.Fatalf("expected 2 delays, got %d", len(clock.slept))
	}
	if clock.slept[0] != 2*time.Second {
		t.Errorf("expected 2 s delay after error, got %s", clock.slept[0])
	}
	if clock.slept[1] != 1*time.Second {
		t.Errorf("expected 1 s delay after imprecise fix, got %s", clock.slept[1])
	}
}

func TestAcquireFromNetwork(t *testing.T) {
	locator := &mockLocator{
		locateFn: func(ctx context.Context) (domain.LocationSample, error) {
			return sampleAt(27.7, 85.3, 5000), nil
		},
	}
	svc := usecases.NewLocationService(nil, locator, nil, nil, nil, &fakeClock{}, usecases.LocationConfig{})

	got, err := svc.AcquireFromNetwork(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Source != domain.SourceNetwork {
		t.Errorf("expected network source, got %s", got.Source)
	}

	current, ok := svc.Current()
	if !ok || current.Lat != 27.7 {
		t.Errorf("expected current location to be updated, got %v ok=%v", current, ok)
	}
}

func TestAcquireFromNetwork_Unavailable(t *testing.T) {
	locator := &mockLocator{
		locateFn: func(ctx context.Context) (domain.LocationSample, error) {
			return domain.LocationSample{}, errors.New("upstream down")
		},
	}
	svc := usecases.NewLocationService(nil, locator, nil, nil, nil, &fakeClock{}, usecases.LocationConfig{})

	_, err := svc.AcquireFromNetwork(context.Background())
	if !errors.Is(err, domain.ErrNetworkLocationUnavailable) {
		t.Errorf("expected ErrNetworkLocationUnavailable, got %v", err)
	}
}

func TestCurrent_EmptyBeforeFirstFix(t *testing.T) {
	svc := usecases.NewLocationService(nil, nil, nil, nil, nil, &fakeClock{}, usecases.LocationConfig{})
	if _, ok := svc.Current(); ok {
		t.Error("expected no current location before any update")
	}
}

func TestDescribe_CachesReverseLookups(t *testing.T) {
	calls := 0
	geocoder := &mockGeocoder{
		reverseFn: func(ctx context.Context, c domain.Coordinate) (ports.Place, error) {
			calls++
			return ports.Place{Coordinate: c, DisplayName: "Thamel, Kathmandu"}, nil
		},
	}
	svc := usecases.NewLocationService(nil, nil, geocoder, nil, newMockCache(), &fakeClock{}, usecases.LocationConfig{})

	at := domain.Coordinate{Lat: 27.7172, Lon: 85.3240}
	for i := 0; i < 3; i++ {
		name, err := svc.Describe(context.Background(), at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name != "Thamel, Kathmandu" {
			t.Errorf("unexpected name %q", name)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 reverse geocode call, got %d", calls)
	}
}

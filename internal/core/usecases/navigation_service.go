package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
)

// NavigationConfig tunes the reached threshold and announcement throttle.
// Zero values fall back to the defaults the original device used.
type NavigationConfig struct {
	ReachedThresholdKm float64       // arrival radius, default 0.01 (~10 m)
	DirectionCooldown  time.Duration // min gap after a direction change, default 5 s
	NearDistanceKm     float64       // proximity boundary for milestone pacing, default 0.5
	NearInterval       time.Duration // milestone gap when close, default 30 s
	FarInterval        time.Duration // milestone gap when far, default 60 s
}

func (c NavigationConfig) withDefaults() NavigationConfig {
	if c.ReachedThresholdKm <= 0 {
		c.ReachedThresholdKm = 0.01
	}
	if c.DirectionCooldown <= 0 {
		c.DirectionCooldown = 5 * time.Second
	}
	if c.NearDistanceKm <= 0 {
		c.NearDistanceKm = 0.5
	}
	if c.NearInterval <= 0 {
		c.NearInterval = 30 * time.Second
	}
	if c.FarInterval <= 0 {
		c.FarInterval = 60 * time.Second
	}
	return c
}

// NavigationSnapshot is the engine state exposed to the dashboard.
type NavigationSnapshot struct {
	State     domain.NavState       `json:"state"`
	Route     *domain.RouteState    `json:"route,omitempty"`
	Direction *domain.DirectionInfo `json:"direction,omitempty"`
}

// NavigationService owns the active-route state machine: it consumes position
// updates while navigating, derives live guidance, and decides when to speak.
// Exactly one route is active at a time; starting a new one discards the old.
type NavigationService struct {
	speech    ports.SpeechSink
	publisher ports.EventPublisher
	clock     ports.Clock
	cfg       NavigationConfig

	mu         sync.Mutex
	generation uint64
	state      domain.NavState
	route      *domain.RouteState
	announce   domain.AnnouncementState
	direction  *domain.DirectionInfo
}

// NewNavigationService creates an idle engine. speech and publisher may be
// nil (announcements are then dropped, navigation math still runs).
func NewNavigationService(speech ports.SpeechSink, publisher ports.EventPublisher, clock ports.Clock, cfg NavigationConfig) *NavigationService {
	if clock == nil {
		clock = SystemClock()
	}
	return &NavigationService{
		speech:    speech,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg.withDefaults(),
		state:     domain.NavIdle,
	}
}

// NextGeneration reserves a route-acquisition slot. The returned generation
// must be passed to StartRoute; any StartRoute or ClearRoute in between
// invalidates it, so slow backend responses for abandoned requests are
// discarded instead of clobbering the newer route.
func (s *NavigationService) NextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// StartRoute activates a route and announces it. Any previous route is
// replaced and the announcement state reset.
func (s *NavigationService) StartRoute(ctx context.Context, gen uint64, route domain.RouteResult, from domain.Coordinate) (domain.DirectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return domain.DirectionInfo{}, domain.ErrStaleRoute
	}

	info := directionBetween(from, route.Destination)
	s.state = domain.NavNavigating
	s.route = &domain.RouteState{Route: route, Started: true, Reached: false}
	s.direction = &info
	s.announce = domain.AnnouncementState{
		LastDirection:     info.Direction,
		LastAnnouncedAtMs: s.clock.Now().UnixMilli(),
	}

	if route.Source == domain.RouteSourceDirect {
		s.say(ctx, "Warning: Road routing unavailable. Following direct path.", domain.SpeechAlert)
	}
	s.say(ctx, routeSummary(route, info), domain.SpeechSummary)
	s.say(ctx, "Real-time navigation started. You will hear direction updates as you walk.", domain.SpeechUpdate)
	s.notify(ctx, "started", info.Instruction)
	s.publishDirection(ctx, info)

	slog.Info("navigation started",
		"destination", route.DestinationName,
		"distance_km", route.DistanceKm,
		"source", route.Source)
	return info, nil
}

// OnPositionUpdate feeds a new position into the engine. Outside the
// Navigating state it is a no-op and never fails.
func (s *NavigationService) OnPositionUpdate(ctx context.Context, sample domain.LocationSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.NavNavigating || s.route == nil {
		return
	}

	info := directionBetween(sample.Coordinate, s.route.Route.Destination)
	s.direction = &info
	s.publishDirection(ctx, info)

	if info.DistanceKm < s.cfg.ReachedThresholdKm {
		s.state = domain.NavReached
		s.route.Reached = true
		s.route.Started = false
		s.say(ctx, "Destination reached! You have arrived at your location.", domain.SpeechUpdate)
		s.notify(ctx, "reached", "Destination reached")
		slog.Info("destination reached", "destination", s.route.Route.DestinationName)
		return
	}

	now := s.clock.Now().UnixMilli()
	if !shouldAnnounce(info.Direction, info.DistanceKm, now, s.announce, s.cfg) {
		return
	}
	s.say(ctx, progressMessage(info), domain.SpeechUpdate)
	s.announce.LastDirection = info.Direction
	if now > s.announce.LastAnnouncedAtMs {
		s.announce.LastAnnouncedAtMs = now
	}
}

// ClearRoute discards any active route and returns the engine to Idle.
// Safe to call from any state.
func (s *NavigationService) ClearRoute(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	hadRoute := s.route != nil
	s.state = domain.NavIdle
	s.route = nil
	s.direction = nil
	s.announce = domain.AnnouncementState{}

	if hadRoute {
		s.say(ctx, "Route cleared. Real-time navigation stopped.", domain.SpeechUpdate)
		s.notify(ctx, "cleared", "Route cleared")
		slog.Info("route cleared")
	}
}

// Snapshot returns the current engine state for the dashboard.
func (s *NavigationService) Snapshot() NavigationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := NavigationSnapshot{State: s.state}
	if s.route != nil {
		r := *s.route
		snap.Route = &r
	}
	if s.direction != nil {
		d := *s.direction
		snap.Direction = &d
	}
	return snap
}

func (s *NavigationService) say(ctx context.Context, text string, opts domain.SpeechOptions) {
	if s.speech == nil {
		return
	}
	if err := s.speech.Speak(ctx, text, opts); err != nil {
		slog.Warn("speech delivery failed", "error", err)
	}
}

func (s *NavigationService) notify(ctx context.Context, kind, text string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNotice(ctx, kind, text); err != nil {
		slog.Warn("notice publish failed", "kind", kind, "error", err)
	}
}

func (s *NavigationService) publishDirection(ctx context.Context, info domain.DirectionInfo) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDirection(ctx, info); err != nil {
		slog.Warn("direction publish failed", "error", err)
	}
}

// directionBetween derives live guidance from a position and a destination.
func directionBetween(from, to domain.Coordinate) domain.DirectionInfo {
	bearing := geospatial.InitialBearing(from.Lat, from.Lon, to.Lat, to.Lon)
	distance := geospatial.DistanceKm(from.Lat, from.Lon, to.Lat, to.Lon)
	dir := domain.CompassFromBearing(bearing)
	return domain.DirectionInfo{
		BearingDegrees: int(math.Round(bearing)) % 360,
		DistanceKm:     distance,
		Direction:      dir,
		Instruction:    domain.Instruction(dir, distance),
	}
}

func routeSummary(route domain.RouteResult, info domain.DirectionInfo) string {
	return fmt.Sprintf("Route found. %s. Distance: %s. Direction: %s. Estimated time: %d minutes.",
		info.Instruction,
		domain.FormatDistance(route.DistanceKm),
		info.Direction.Name,
		int(route.DurationMinutes+0.5),
	)
}

package ports

import (
	"context"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// SpeechSink delivers spoken guidance to the user. Fire-and-forget: callers
// log failures but never block navigation on them.
type SpeechSink interface {
	Speak(ctx context.Context, text string, opts domain.SpeechOptions) error
}

// EventPublisher pushes domain events to the message broker for the
// dashboard relay and the tracker telemetry path.
type EventPublisher interface {
	PublishTelemetry(ctx context.Context, sample domain.LocationSample) error
	PublishDirection(ctx context.Context, info domain.DirectionInfo) error
	PublishNotice(ctx context.Context, kind, text string) error
}

// EventSubscriber consumes the inbound device position feed.
type EventSubscriber interface {
	// SubscribePositions delivers every well-formed position sample from the
	// tracker. Malformed payloads are dropped by the adapter, not surfaced.
	SubscribePositions(ctx context.Context, handler func(ctx context.Context, sample domain.LocationSample) error) error
}

// CacheService provides read-through caching for geocoding lookups.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Clock abstracts wall time and delays so retry loops are testable with a
// fake. Sleep returns early with the context error when ctx is cancelled.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// Subscriber consumes the tracker position feed and implements
// ports.EventSubscriber.
type Subscriber struct {
	conn     *nats.Conn
	deviceID string
	subs     []*nats.Subscription
}

// NewSubscriber wraps an existing connection for one device's feed.
func NewSubscriber(conn *nats.Conn, deviceID string) *Subscriber {
	return &Subscriber{conn: conn, deviceID: deviceID}
}

// SubscribePositions delivers well-formed position samples to the handler.
// Malformed payloads are dropped; the feed must never take navigation down.
func (s *Subscriber) SubscribePositions(ctx context.Context, handler func(ctx context.Context, sample domain.LocationSample) error) error {
	subject := SubjectPositionPrefix + s.deviceID
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		sample, err := ParsePositionPayload(msg.Data)
		if err != nil {
			metrics.FeedPayloadsDropped.Inc()
			slog.Warn("dropping malformed position payload", "subject", msg.Subject, "error", err)
			return
		}
		metrics.FeedPositionsReceived.Inc()
		if err := handler(ctx, sample); err != nil {
			slog.Warn("position handler failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes; the shared connection is left to its owner.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

// positionPayload tolerates the tracker firmware's quirks: coordinates may
// arrive as numbers or numeric strings, and older firmware capitalizes the
// field names.
type positionPayload struct {
	Latitude   json.RawMessage `json:"latitude"`
	Longitude  json.RawMessage `json:"longitude"`
	LatitudeC  json.RawMessage `json:"Latitude"`
	LongitudeC json.RawMessage `json:"Longitude"`
}

// ParsePositionPayload decodes a feed message into a LocationSample.
// Returns domain.ErrInvalidCoordinate for anything unusable.
func ParsePositionPayload(data []byte) (domain.LocationSample, error) {
	var p positionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.LocationSample{}, fmt.Errorf("%w: %w", domain.ErrInvalidCoordinate, err)
	}

	latRaw := firstPresent(p.Latitude, p.LatitudeC)
	lonRaw := firstPresent(p.Longitude, p.LongitudeC)
	if latRaw == nil || lonRaw == nil {
		return domain.LocationSample{}, fmt.Errorf("%w: missing latitude or longitude", domain.ErrInvalidCoordinate)
	}

	lat, err := flexFloat(latRaw)
	if err != nil {
		return domain.LocationSample{}, fmt.Errorf("%w: latitude: %w", domain.ErrInvalidCoordinate, err)
	}
	lon, err := flexFloat(lonRaw)
	if err != nil {
		return domain.LocationSample{}, fmt.Errorf("%w: longitude: %w", domain.ErrInvalidCoordinate, err)
	}

	sample := domain.LocationSample{
		Coordinate:   domain.Coordinate{Lat: lat, Lon: lon},
		Source:       domain.SourceDevice,
		ObservedAtMs: time.Now().UnixMilli(),
	}
	if !sample.Valid() {
		return domain.LocationSample{}, fmt.Errorf("%w: out of range: %f,%f", domain.ErrInvalidCoordinate, lat, lon)
	}
	return sample, nil
}

// firstPresent returns the first field that exists and is not JSON null.
func firstPresent(raws ...json.RawMessage) json.RawMessage {
	for _, raw := range raws {
		if raw != nil && string(raw) != "null" {
			return raw
		}
	}
	return nil
}

// flexFloat accepts 27.7172, "27.7172", or "27.7172 " (trailing whitespace
// seen in the wild from the serial bridge).
func flexFloat(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("neither number nor string: %s", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return f, nil
}

package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// Subject layout. The device ID segment lets one broker serve several canes.
const (
	SubjectPositionPrefix = "gps.position." // + device ID: inbound tracker feed
	SubjectFixPrefix      = "gps.fix."      // + device ID: request/reply fix
	SubjectTelemetry      = "gps.telemetry" // outbound sensor fixes
	SubjectDirection      = "nav.direction" // live compass updates
	SubjectSpeech         = "nav.speech"    // spoken guidance for the browser
	SubjectNotice         = "nav.notice"    // navigation lifecycle notices
)

// Connect dials NATS with the reconnect behavior every wayfinder process
// uses: keep retrying forever.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

// Publisher implements ports.EventPublisher over plain NATS. Events are
// ephemeral: the dashboard only cares about the latest state, and nothing
// here is persisted.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) PublishTelemetry(ctx context.Context, sample domain.LocationSample) error {
	data, err := json.Marshal(map[string]any{
		"latitude":  sample.Lat,
		"longitude": sample.Lon,
		"timestamp": sample.ObservedAtMs,
	})
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectTelemetry, data)
}

func (p *Publisher) PublishDirection(ctx context.Context, info domain.DirectionInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectDirection, data)
}

func (p *Publisher) PublishNotice(ctx context.Context, kind, text string) error {
	data, err := json.Marshal(map[string]string{"kind": kind, "text": text})
	if err != nil {
		return err
	}
	if err := p.conn.Publish(SubjectNotice, data); err != nil {
		return err
	}
	if kind == "reached" {
		metrics.DestinationsReached.Inc()
	}
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

package natsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// SensorClient implements ports.FixProvider over NATS request/reply. The
// tracker firmware listens on gps.fix.<device> and answers each request with
// a single fix or a coded failure.
type SensorClient struct {
	conn     *nats.Conn
	deviceID string
}

func NewSensorClient(conn *nats.Conn, deviceID string) *SensorClient {
	return &SensorClient{conn: conn, deviceID: deviceID}
}

type fixRequest struct {
	TimeoutMs int64 `json:"timeout_ms"`
	MaxAgeMs  int64 `json:"max_age_ms"`
}

type fixReply struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"`
	Error     string  `json:"error,omitempty"`
}

// RequestFix asks the device for one fresh fix. The sensor timeout is carried
// inside the request so the device gives up before the reply deadline.
func (c *SensorClient) RequestFix(ctx context.Context, timeout, maxAge time.Duration) (domain.LocationSample, error) {
	sample, err := c.requestFix(ctx, timeout, maxAge)
	metrics.FixAttempts.WithLabelValues(fixOutcome(err)).Inc()
	return sample, err
}

func fixOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var serr *domain.SensorError
	if errors.As(err, &serr) {
		return string(serr.Code)
	}
	return string(domain.SensorUnknown)
}

func (c *SensorClient) requestFix(ctx context.Context, timeout, maxAge time.Duration) (domain.LocationSample, error) {
	req, err := json.Marshal(fixRequest{
		TimeoutMs: timeout.Milliseconds(),
		MaxAgeMs:  maxAge.Milliseconds(),
	})
	if err != nil {
		return domain.LocationSample{}, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(reqCtx, SubjectFixPrefix+c.deviceID, req)
	if err != nil {
		switch {
		case errors.Is(err, nats.ErrNoResponders):
			return domain.LocationSample{}, &domain.SensorError{Code: domain.SensorPositionUnavailable, Err: err}
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
			return domain.LocationSample{}, &domain.SensorError{Code: domain.SensorTimeout, Err: err}
		default:
			return domain.LocationSample{}, &domain.SensorError{Code: domain.SensorUnknown, Err: err}
		}
	}

	var reply fixReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return domain.LocationSample{}, &domain.SensorError{Code: domain.SensorUnknown, Err: err}
	}
	if reply.Error != "" {
		return domain.LocationSample{}, &domain.SensorError{Code: sensorCode(reply.Error), Err: errors.New(reply.Error)}
	}

	sample := domain.LocationSample{
		Coordinate:     domain.Coordinate{Lat: reply.Latitude, Lon: reply.Longitude},
		AccuracyMeters: reply.Accuracy,
		Source:         domain.SourceSensor,
		ObservedAtMs:   reply.Timestamp,
	}
	if !sample.Valid() {
		return domain.LocationSample{}, &domain.SensorError{
			Code: domain.SensorPositionUnavailable,
			Err:  fmt.Errorf("%w: lat=%v lon=%v", domain.ErrInvalidCoordinate, reply.Latitude, reply.Longitude),
		}
	}
	return sample, nil
}

// sensorCode maps the device's error strings onto the sensor taxonomy.
func sensorCode(s string) domain.SensorErrorCode {
	switch domain.SensorErrorCode(s) {
	case domain.SensorPermissionDenied, domain.SensorPositionUnavailable, domain.SensorTimeout:
		return domain.SensorErrorCode(s)
	default:
		return domain.SensorUnknown
	}
}

package domain

import (
	"errors"
	"fmt"
)

// SensorErrorCode classifies why a high-accuracy fix could not be obtained.
type SensorErrorCode string

const (
	SensorPermissionDenied    SensorErrorCode = "permission_denied"
	SensorPositionUnavailable SensorErrorCode = "position_unavailable"
	SensorTimeout             SensorErrorCode = "timeout"
	SensorUnknown             SensorErrorCode = "unknown"
)

// SensorError is returned when the positioning sensor fails on the final
// retry attempt. Message carries the actionable text shown to the user.
type SensorError struct {
	Code SensorErrorCode
	Err  error
}

func (e *SensorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sensor %s: %v", e.Code, e.Err)
	}
	return "sensor " + string(e.Code)
}

func (e *SensorError) Unwrap() error { return e.Err }

// Message is the user-facing advice for each sensor failure mode.
func (e *SensorError) Message() string {
	switch e.Code {
	case SensorPermissionDenied:
		return "Location permission denied. Please allow location access."
	case SensorPositionUnavailable:
		return "Location unavailable. Try going outside or near a window."
	case SensorTimeout:
		return "Location timeout. Please try again."
	default:
		return "Location error. Please try again."
	}
}

var (
	// ErrNetworkLocationUnavailable means the IP geolocation lookup returned
	// no usable coordinate.
	ErrNetworkLocationUnavailable = errors.New("network location unavailable")

	// ErrGeocodeNotFound means the forward geocoder returned zero candidates.
	ErrGeocodeNotFound = errors.New("destination not found")

	// ErrNoLocation means no current location sample exists yet.
	ErrNoLocation = errors.New("no current location")

	// ErrNoActiveRoute means navigation is idle.
	ErrNoActiveRoute = errors.New("no active route")

	// ErrStaleRoute means a route acquisition finished after a newer
	// StartRoute or ClearRoute superseded it; the result must be discarded.
	ErrStaleRoute = errors.New("route acquisition superseded")

	// ErrInvalidCoordinate means an inbound payload did not contain a usable
	// latitude/longitude pair. Never fatal: feed consumers drop and move on.
	ErrInvalidCoordinate = errors.New("invalid coordinate payload")
)

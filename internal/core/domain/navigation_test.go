package domain_test

import (
	"testing"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

func TestFormatDistance(t *testing.T) {
	cases := []struct {
		km   float64
		want string
	}{
		{0.045, "45 meters"},
		{0.5, "500 meters"},
		{0.999, "999 meters"},
		{1.0, "1.0 kilometers"},
		{2.34, "2.3 kilometers"},
		{12.06, "12.1 kilometers"},
	}
	for _, c := range cases {
		if got := domain.FormatDistance(c.km); got != c.want {
			t.Errorf("FormatDistance(%f): expected %q, got %q", c.km, c.want, got)
		}
	}
}

func TestInstruction(t *testing.T) {
	dir := domain.CompassFromBearing(0)
	got := domain.Instruction(dir, 1.5)
	want := "Head North for 1.5 kilometers"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSensorErrorMessage(t *testing.T) {
	cases := []struct {
		code domain.SensorErrorCode
		want string
	}{
		{domain.SensorPermissionDenied, "Location permission denied. Please allow location access."},
		{domain.SensorPositionUnavailable, "Location unavailable. Try going outside or near a window."},
		{domain.SensorTimeout, "Location timeout. Please try again."},
		{domain.SensorUnknown, "Location error. Please try again."},
	}
	for _, c := range cases {
		err := &domain.SensorError{Code: c.code}
		if got := err.Message(); got != c.want {
			t.Errorf("%s: expected %q, got %q", c.code, c.want, got)
		}
	}
}

func TestCoordinateValid(t *testing.T) {
	valid := []domain.Coordinate{{Lat: 0, Lon: 0}, {Lat: -90, Lon: 180}, {Lat: 27.7172, Lon: 85.3240}}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("expected %v to be valid", c)
		}
	}
	invalid := []domain.Coordinate{{Lat: 91, Lon: 0}, {Lat: 0, Lon: -181}, {Lat: -90.001, Lon: 0}}
	for _, c := range invalid {
		if c.Valid() {
			t.Errorf("expected %v to be invalid", c)
		}
	}
}

package domain_test

import (
	"testing"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

func TestCompassFromBearing_Cardinals(t *testing.T) {
	cases := []struct {
		bearing float64
		code    string
	}{
		{0, "N"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{45, "NE"},
		{135, "SE"},
		{225, "SW"},
		{315, "NW"},
	}
	for _, c := range cases {
		got := domain.CompassFromBearing(c.bearing)
		if got.Code != c.code {
			t.Errorf("bearing %.1f: expected %s, got %s", c.bearing, c.code, got.Code)
		}
	}
}

func TestCompassFromBearing_SectorBoundary(t *testing.T) {
	// 11.24 still rounds to North; 11.25 rounds up into NNE.
	if got := domain.CompassFromBearing(11.24); got.Code != "N" {
		t.Errorf("11.24: expected N, got %s", got.Code)
	}
	if got := domain.CompassFromBearing(11.25); got.Code != "NNE" {
		t.Errorf("11.25: expected NNE, got %s", got.Code)
	}
}

func TestCompassFromBearing_WrapsToNorth(t *testing.T) {
	// Bearings just under 360 round back to sector 0.
	if got := domain.CompassFromBearing(359.9); got.Code != "N" {
		t.Errorf("359.9: expected N, got %s", got.Code)
	}
	if got := domain.CompassFromBearing(349); got.Code != "NNW" {
		t.Errorf("349: expected NNW, got %s", got.Code)
	}
}

func TestCompassFromBearing_Names(t *testing.T) {
	got := domain.CompassFromBearing(22.5)
	if got.Name != "North-Northeast" {
		t.Errorf("expected North-Northeast, got %s", got.Name)
	}
}

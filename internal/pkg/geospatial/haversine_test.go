package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
)

func TestDistanceKm_Zero(t *testing.T) {
	d := geospatial.DistanceKm(27.7172, 85.3240, 27.7172, 85.3240)
	if d != 0 {
		t.Errorf("expected 0 for identical points, got %f", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := geospatial.DistanceKm(27.7172, 85.3240, 27.7000, 85.3000)
	b := geospatial.DistanceKm(27.7000, 85.3000, 27.7172, 85.3240)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestDistanceKm_OneDegreeOfLatitude(t *testing.T) {
	// 0.01 degrees of latitude is about 1.11 km anywhere on the globe.
	d := geospatial.DistanceKm(27.7172, 85.3240, 27.7272, 85.3240)
	if math.Abs(d-1.11) > 0.05 {
		t.Errorf("expected ~1.11 km, got %f", d)
	}
}

func TestInitialBearing_DueNorth(t *testing.T) {
	b := geospatial.InitialBearing(27.7172, 85.3240, 27.7272, 85.3240)
	if math.Abs(b) > 1 {
		t.Errorf("expected ~0 degrees for due north, got %f", b)
	}
}

func TestInitialBearing_DueEastRoughly(t *testing.T) {
	b := geospatial.InitialBearing(0, 85, 0, 86)
	if math.Abs(b-90) > 1 {
		t.Errorf("expected ~90 degrees for due east at the equator, got %f", b)
	}
}

func TestInitialBearing_Range(t *testing.T) {
	cases := [][4]float64{
		{27.7172, 85.3240, 27.7000, 85.3000},
		{27.7172, 85.3240, 27.7272, 85.3240},
		{27.7172, 85.3240, 27.7172, 85.3000},
		{-33.8688, 151.2093, 51.5074, -0.1278},
	}
	for _, c := range cases {
		b := geospatial.InitialBearing(c[0], c[1], c[2], c[3])
		if b < 0 || b >= 360 {
			t.Errorf("bearing %f out of [0, 360) for %v", b, c)
		}
	}
}

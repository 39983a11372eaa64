package verify

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expectedKm             float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 13.0129, lon1: 80.2231,
			lat2: 13.0129, lon2: 80.2231,
			expectedKm: 0,
			tolerance:  0.0001,
		},
		{
			name: "chennai to bangalore",
			lat1: 13.0827, lon1: 80.2707,
			lat2: 12.9716, lon2: 77.5946,
			expectedKm: 290,
			tolerance:  5,
		},
		{
			name: "across the equator",
			lat1: 1.0, lon1: 10.0,
			lat2: -1.0, lon2: 10.0,
			expectedKm: 222.4,
			tolerance:  1,
		},
		{
			name: "one degree of longitude at the equator",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 1,
			expectedKm: 111.2,
			tolerance:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.expectedKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f ± %f", got, tt.expectedKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	d1 := DistanceKm(13.0129, 80.2231, 12.9716, 77.5946)
	d2 := DistanceKm(12.9716, 77.5946, 13.0129, 80.2231)

	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestWithinRadius(t *testing.T) {
	const officeLat, officeLon = 13.0129, 80.2231

	tests := []struct {
		name     string
		lat, lon float64
		radiusKm float64
		within   bool
	}{
		{
			name: "at the office",
			lat:  officeLat, lon: officeLon,
			radiusKm: 0.5,
			within:   true,
		},
		{
			name: "a few hundred meters away",
			lat:  13.0150, lon: 80.2240,
			radiusKm: 0.5,
			within:   true,
		},
		{
			name: "across town",
			lat:  13.0827, lon: 80.2707,
			radiusKm: 0.5,
			within:   false,
		},
		{
			name: "across town with a huge radius",
			lat:  13.0827, lon: 80.2707,
			radiusKm: 50,
			within:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			within, distance := WithinRadius(tt.lat, tt.lon, officeLat, officeLon, tt.radiusKm)
			if within != tt.within {
				t.Errorf("WithinRadius() = %v (distance %f), want %v", within, distance, tt.within)
			}
			// The boolean must agree with the measured distance.
			if within != (distance <= tt.radiusKm) {
				t.Errorf("within=%v disagrees with distance %f <= radius %f", within, distance, tt.radiusKm)
			}
		})
	}
}

func TestWithinRadius_BoundaryInclusive(t *testing.T) {
	// A radius exactly equal to the measured distance must pass.
	_, distance := WithinRadius(13.0150, 80.2240, 13.0129, 80.2231, 0)
	within, _ := WithinRadius(13.0150, 80.2240, 13.0129, 80.2231, distance)

	if !within {
		t.Errorf("expected inclusive boundary at distance %f", distance)
	}
}

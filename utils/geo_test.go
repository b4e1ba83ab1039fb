package utils

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	if d := HaversineKm(-1.2921, 36.8219, -1.2921, 36.8219); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}

	// One degree of longitude along the equator is about 111.19 km.
	d := HaversineKm(0, 0, 0, 1)
	if math.Abs(d-111.19) > 0.5 {
		t.Fatalf("equatorial degree = %v km, want ~111.19", d)
	}

	// Nairobi CBD to Mombasa, roughly 440 km.
	d = HaversineKm(-1.2921, 36.8219, -4.0435, 39.6682)
	if d < 420 || d > 460 {
		t.Fatalf("Nairobi-Mombasa = %v km, outside the expected range", d)
	}
}

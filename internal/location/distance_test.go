package location

import (
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	gateLat, gateLng := 28.123456, 77.123456

	if d := HaversineMeters(gateLat, gateLng, gateLat, gateLng); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}

	// one degree of latitude is roughly 111 km
	d := HaversineMeters(gateLat, gateLng, gateLat+1, gateLng)
	if math.Abs(d-111195) > 500 {
		t.Errorf("one degree latitude = %v m, want ~111195", d)
	}

	// ~100 m north of the gate
	near := HaversineMeters(gateLat, gateLng, gateLat+0.0009, gateLng)
	if near < 90 || near > 110 {
		t.Errorf("0.0009 degrees latitude = %v m, want ~100", near)
	}

	// symmetry
	a := HaversineMeters(gateLat, gateLng, gateLat+0.01, gateLng+0.01)
	b := HaversineMeters(gateLat+0.01, gateLng+0.01, gateLat, gateLng)
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}

package fare

import (
	"math"
	"testing"

	"github.com/gocar-app/gocar/internal/domain/types"
)

func TestDistanceKmKarachiSample(t *testing.T) {
	// Saddar-ish to Gulshan-ish, the canonical request used across the app.
	got := DistanceKm(24.86, 67.00, 24.90, 67.05)

	if got < 6.5 || got > 7.0 {
		t.Fatalf("distance = %.3f km, want ~6.7 km", got)
	}
}

func TestDistanceKmZero(t *testing.T) {
	if got := DistanceKm(24.86, 67.00, 24.86, 67.00); got != 0 {
		t.Fatalf("distance between identical points = %v, want 0", got)
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	a := DistanceKm(24.86, 67.00, 24.90, 67.05)
	b := DistanceKm(24.90, 67.05, 24.86, 67.00)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestEstimateMatchesDisplayedFormula(t *testing.T) {
	d := DistanceKm(24.86, 67.00, 24.90, 67.05)

	want := int(math.Ceil(d * 50))
	if got := Estimate(types.VehicleBike, d); got != want {
		t.Fatalf("bike fare = %d, want ceil(%.3f*50) = %d", got, d, want)
	}

	want = int(math.Ceil(d * 160))
	if got := Estimate(types.VehicleCar, d); got != want {
		t.Fatalf("car fare = %d, want ceil(%.3f*160) = %d", got, d, want)
	}
}

func TestEstimateRates(t *testing.T) {
	tests := []struct {
		vehicle types.VehicleType
		km      float64
		want    int
	}{
		{types.VehicleBike, 1, 50},
		{types.VehicleBike, 5.3, 265},
		{types.VehicleBike, 5.01, 251}, // rounds up
		{types.VehicleCar, 1, 160},
		{types.VehicleCar, 2.5, 400},
		{types.VehicleBike, 0, 0},
		{types.VehicleBike, -1, 0},
		{types.VehicleType("rickshaw"), 2, 100}, // unknown type gets bike rate
	}

	for _, tt := range tests {
		if got := Estimate(tt.vehicle, tt.km); got != tt.want {
			t.Errorf("Estimate(%s, %v) = %d, want %d", tt.vehicle, tt.km, got, tt.want)
		}
	}
}

// Package fare computes the ride distance and the fare estimate shown to the
// rider before submission. The backend receives both values in the ride
// request and echoes them to drivers, so client and server must agree on the
// arithmetic.
package fare

import (
	"math"

	"github.com/gocar-app/gocar/internal/domain/types"
)

// earthRadiusKm per the great-circle formula both mobile clients shipped with.
const earthRadiusKm = 6371

// Per-kilometre rates in PKR.
const (
	bikePerKm = 50
	carPerKm  = 160
)

// DistanceKm returns the great-circle (haversine) distance between two points
// in kilometres.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// PerKm returns the per-kilometre rate for a vehicle type in PKR. Unknown
// types fall back to the bike rate, the cheapest.
func PerKm(v types.VehicleType) int {
	switch v {
	case types.VehicleCar:
		return carPerKm
	default:
		return bikePerKm
	}
}

// Estimate is the displayed fare: distance times the vehicle rate, rounded up
// to a whole rupee.
func Estimate(v types.VehicleType, distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}
	return int(math.Ceil(distanceKm * float64(PerKm(v))))
}

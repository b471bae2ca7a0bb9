// Package sim runs scripted rider and driver clients against a live backend.
// Each simulator walks the full ride lifecycle through the same SDK packages
// the app would use, so a backend plus one rider and one driver simulator is
// a working end-to-end demo.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/gocar-app/gocar/internal/domain/models"
)

// A fixed Karachi route keeps the simulated rides comparable between runs.
var (
	saddar = models.Location{
		Latitude:  24.8607,
		Longitude: 67.0011,
		Address:   "Saddar, Karachi",
	}
	gulshan = models.Location{
		Latitude:  24.9265,
		Longitude: 67.0882,
		Address:   "Gulshan-e-Iqbal, Karachi",
	}
)

// freshPhone returns a random, well-formed Pakistani mobile number so repeat
// runs do not collide on the phone uniqueness constraint.
func freshPhone() string {
	return fmt.Sprintf("+92300%07d", rand.Intn(10_000_000))
}

// driveStep moves a point a fraction of the way toward the destination, with
// a little jitter so the trace does not look like a ruler.
func driveStep(from models.LocationSample, to models.Location, fraction float64) models.LocationSample {
	jitter := func() float64 { return (rand.Float64() - 0.5) * 0.0005 }
	return models.LocationSample{
		Latitude:  from.Latitude + (to.Latitude-from.Latitude)*fraction + jitter(),
		Longitude: from.Longitude + (to.Longitude-from.Longitude)*fraction + jitter(),
	}
}

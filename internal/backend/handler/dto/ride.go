package dto

import (
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/validator"
)

type RideRequestBody struct {
	UserID           string            `json:"userId"`
	Pickup           models.Location   `json:"pickup"`
	Dropoff          models.Location   `json:"dropoff"`
	VehicleType      types.VehicleType `json:"vehicleType"`
	FemaleDriverOnly bool              `json:"femaleDriverOnly"`
	Distance         float64           `json:"distance"`
	Fare             int               `json:"fare"`
}

func (r *RideRequestBody) Validate(v *validator.Validator) {
	v.Check(validator.NotBlank(r.UserID), "userId", "must be provided")
	validateLocation(v, "pickup", r.Pickup)
	validateLocation(v, "dropoff", r.Dropoff)
	v.Check(validator.PermittedValue(r.VehicleType, types.VehicleBike, types.VehicleCar), "vehicleType", "must be bike or car")
	v.Check(r.Distance > 0, "distance", "must be positive")
	v.Check(r.Fare > 0, "fare", "must be positive")
}

func validateLocation(v *validator.Validator, field string, loc models.Location) {
	v.Check(loc.Latitude >= -90 && loc.Latitude <= 90, field+".latitude", "must be between -90 and 90")
	v.Check(loc.Longitude >= -180 && loc.Longitude <= 180, field+".longitude", "must be between -180 and 180")
}

func (r *RideRequestBody) ToModel() models.RideRequest {
	return models.RideRequest{
		UserID:           r.UserID,
		Pickup:           r.Pickup,
		Dropoff:          r.Dropoff,
		VehicleType:      r.VehicleType,
		FemaleDriverOnly: r.FemaleDriverOnly,
		DistanceKm:       r.Distance,
		Fare:             r.Fare,
	}
}

type ProposeFareRequest struct {
	RideID   string  `json:"rideId"`
	DriverID string  `json:"driverId"`
	Fare     float64 `json:"fare"`
}

func (r *ProposeFareRequest) Validate(v *validator.Validator) {
	v.Check(validator.NotBlank(r.RideID), "rideId", "must be provided")
	v.Check(validator.NotBlank(r.DriverID), "driverId", "must be provided")
	v.Check(r.Fare > 0, "fare", "must be positive")
}

type AcceptProposalRequest struct {
	ProposalID string  `json:"proposalId"`
	RideID     string  `json:"rideId"`
	UserID     string  `json:"userId"`
	DriverID   string  `json:"driverId"`
	Fare       float64 `json:"fare"`
}

func (r *AcceptProposalRequest) Validate(v *validator.Validator) {
	v.Check(validator.NotBlank(r.ProposalID), "proposalId", "must be provided")
	v.Check(validator.NotBlank(r.RideID), "rideId", "must be provided")
	v.Check(validator.NotBlank(r.UserID), "userId", "must be provided")
	v.Check(validator.NotBlank(r.DriverID), "driverId", "must be provided")
}

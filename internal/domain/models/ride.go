package models

import (
	"github.com/gocar-app/gocar/internal/domain/types"
)

// Location is a point with its human-readable address, as sent in the ride
// request body.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// LatLng is the short coordinate form used by the accept-fare-proposal
// response. The two spellings are both part of the wire contract.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RideRequest is created rider-side on submit and posted once. No client-side
// mutation after that.
type RideRequest struct {
	UserID           string            `json:"userId"`
	Pickup           Location          `json:"pickup"`
	Dropoff          Location          `json:"dropoff"`
	VehicleType      types.VehicleType `json:"vehicleType"`
	FemaleDriverOnly bool              `json:"femaleDriverOnly"`
	DistanceKm       float64           `json:"distance"`
	Fare             int               `json:"fare"`
}

// RideOffer is a ride request as routed to one driver. femaleDriverOnly plus
// the driver's own gender decide whether the driver may propose a fare; the
// server enforces the real constraint.
type RideOffer struct {
	RideID           string       `json:"rideId"`
	DriverID         string       `json:"driverId"`
	PickupLocation   Location     `json:"pickupLocation"`
	DropoffLocation  Location     `json:"dropoffLocation"`
	UserName         string       `json:"userName"`
	UserPhone        string       `json:"userPhone"`
	FemaleDriverOnly bool         `json:"femaleDriverOnly"`
	DriverGender     types.Gender `json:"driverGender,omitempty"`
	Fare             int          `json:"fare"`
}

// Proposable reports whether this driver may answer the offer with a price.
// This mirrors the disabled "set price" button, nothing more: the backend
// re-checks eligibility on submission.
func (o RideOffer) Proposable(gender types.Gender) bool {
	return !o.FemaleDriverOnly || gender == types.GenderFemale
}

// FareProposal is a driver's price offer, pushed to the rider. Several may be
// pending for one ride; accepting one drops the rest.
type FareProposal struct {
	ProposalID       string  `json:"proposalId"`
	RideID           string  `json:"rideId"`
	DriverID         string  `json:"driverId"`
	DriverName       string  `json:"driverName"`
	DriverPhone      string  `json:"driverPhone"`
	ProposedFare     float64 `json:"proposedFare"`
	VehicleInfo      string  `json:"vehicleInfo,omitempty"`
	EstimatedArrival string  `json:"estimatedArrival,omitempty"`
}

// RideSession is everything both parties need for the tracking phase. Built
// once a proposal is accepted, discarded when the ride ends.
type RideSession struct {
	RideRoom        string  `json:"rideRoom"`
	RideID          string  `json:"rideId"`
	PickupLocation  LatLng  `json:"pickupLocation"`
	DropoffLocation LatLng  `json:"dropoffLocation"`
	UserName        string  `json:"userName"`
	UserPhone       string  `json:"userPhone"`
	DriverName      string  `json:"driverName"`
	DriverPhone     string  `json:"driverPhone"`
	LicensePlate    string  `json:"licensePlate"`
	Fare            float64 `json:"fare"`
}

// LocationSample is one driver position during an active ride. Transient,
// never persisted, last value wins on the receiving side.
type LocationSample struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

package service

import (
	"context"
	"fmt"
	"math"

	"github.com/gocar-app/gocar/internal/backend/events"
	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/metrics"
	"github.com/gocar-app/gocar/pkg/uuid"
)

// cityAvgSpeedKmh turns the ride distance into the coarse pickup ETA shown
// next to a fare proposal.
const cityAvgSpeedKmh = 25.0

func etaMinutes(distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}
	return int(math.Ceil(distanceKm / cityAvgSpeedKmh * 60))
}

// Dispatcher is the slice of the gateway the ride flow pushes through.
type Dispatcher interface {
	SendToUser(userID, event string, payload any) error
	SendToDriver(driverID, event string, payload any) error
	OnlineDrivers() []string
}

type Rides struct {
	store  store.Store
	gw     Dispatcher
	events *events.Publisher
	log    logger.Logger
}

func NewRides(st store.Store, gw Dispatcher, pub *events.Publisher, log logger.Logger) *Rides {
	return &Rides{
		store:  st,
		gw:     gw,
		events: pub,
		log:    log,
	}
}

// Request stores a new ride and fans it out to every online driver as an
// offer. With nobody online the rider hears no-drivers-available immediately.
func (s *Rides) Request(ctx context.Context, req models.RideRequest) (string, error) {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, req.UserID), "rides_request")

	user, err := s.store.AccountByID(ctx, req.UserID)
	if err != nil {
		return "", wrap.Error(ctx, err)
	}

	ride := &store.Ride{
		ID:               uuid.NewString(),
		UserID:           req.UserID,
		Pickup:           req.Pickup,
		Dropoff:          req.Dropoff,
		VehicleType:      req.VehicleType,
		FemaleDriverOnly: req.FemaleDriverOnly,
		DistanceKm:       req.DistanceKm,
		Fare:             req.Fare,
		Status:           types.RideStatusPending,
	}
	if err := s.store.CreateRide(ctx, ride); err != nil {
		return "", wrap.Error(ctx, err)
	}

	ctx = wrap.WithRideID(ctx, ride.ID)
	metrics.RidesRequestedTotal.Inc()
	s.events.RideRequested(ctx, events.RideEvent{RideID: ride.ID, UserID: req.UserID, Fare: float64(req.Fare)})

	drivers := s.gw.OnlineDrivers()
	if len(drivers) == 0 {
		s.log.Info(ctx, "no drivers online")
		if err := s.gw.SendToUser(req.UserID, models.EventNoDriversAvailable, models.NoDriversAvailable{}); err != nil {
			s.log.Warn(ctx, "notifying rider failed", "error", err.Error())
		}
		return ride.ID, nil
	}

	offered := 0
	for _, driverID := range drivers {
		offer := models.RideOffer{
			RideID:           ride.ID,
			DriverID:         driverID,
			PickupLocation:   req.Pickup,
			DropoffLocation:  req.Dropoff,
			UserName:         user.Name,
			UserPhone:        user.Phone,
			FemaleDriverOnly: req.FemaleDriverOnly,
			Fare:             req.Fare,
		}
		if driver, err := s.store.AccountByID(ctx, driverID); err == nil {
			offer.DriverGender = driver.Gender
		}
		if err := s.gw.SendToDriver(driverID, models.EventRideRequest, offer); err != nil {
			s.log.Warn(ctx, "offer delivery failed", "driverId", driverID, "error", err.Error())
			continue
		}
		offered++
	}

	s.log.Info(ctx, "ride offered to drivers", "offered", offered)
	return ride.ID, nil
}

// Propose records a driver's price and pushes it to the rider. Eligibility is
// re-checked here; the client-side gate is advisory only.
func (s *Rides) Propose(ctx context.Context, rideID, driverID string, fare float64) (string, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID), "rides_propose")

	ride, err := s.store.RideByID(ctx, rideID)
	if err != nil {
		return "", wrap.Error(ctx, err)
	}
	if ride.Status != types.RideStatusPending {
		return "", wrap.Error(ctx, types.ErrRideAlreadyMatched)
	}

	driver, err := s.store.AccountByID(ctx, driverID)
	if err != nil {
		return "", wrap.Error(ctx, err)
	}
	if ride.FemaleDriverOnly && driver.Gender != types.GenderFemale {
		return "", wrap.Error(ctx, types.ErrDriverNotEligible)
	}

	proposal := &store.Proposal{
		ID:       uuid.NewString(),
		RideID:   rideID,
		DriverID: driverID,
		Fare:     fare,
	}
	if err := s.store.CreateProposal(ctx, proposal); err != nil {
		return "", wrap.Error(ctx, err)
	}

	metrics.FareProposalsTotal.Inc()

	push := models.FareProposal{
		ProposalID:   proposal.ID,
		RideID:       rideID,
		DriverID:     driverID,
		DriverName:   driver.Name,
		DriverPhone:  driver.Phone,
		ProposedFare: fare,
		VehicleInfo:  driver.VehicleInfo,
	}
	if m := etaMinutes(ride.DistanceKm); m > 0 {
		push.EstimatedArrival = fmt.Sprintf("%d min", m)
	}
	if err := s.gw.SendToUser(ride.UserID, models.EventFareProposal, push); err != nil {
		s.log.Warn(ctx, "proposal delivery failed", "error", err.Error())
	}

	s.log.Info(ctx, "fare proposed", "proposalId", proposal.ID, "driverId", driverID, "fare", fare)
	return proposal.ID, nil
}

// Status reports a ride's state as seen by one driver: pending while
// unmatched, the real status for the winning driver, cancelled for everyone
// who lost the ride.
func (s *Rides) Status(ctx context.Context, driverID, rideID string) (types.RideStatus, error) {
	ride, err := s.store.RideByID(ctx, rideID)
	if err != nil {
		return "", err
	}

	if ride.Status == types.RideStatusPending || ride.DriverID == driverID {
		return ride.Status, nil
	}
	return types.RideStatusCancelled, nil
}

// AcceptParams is the rider's acceptance of one proposal.
type AcceptParams struct {
	ProposalID string
	RideID     string
	UserID     string
	DriverID   string
	Fare       float64
}

// Accept locks a proposal in. The store's status guard makes this
// exactly-once: a second accept for the same ride fails with
// ErrRideAlreadyMatched no matter how the requests race.
func (s *Rides) Accept(ctx context.Context, p AcceptParams) (*models.RideSession, error) {
	ctx = wrap.WithAction(wrap.WithRideID(wrap.WithUserID(ctx, p.UserID), p.RideID), "rides_accept")

	proposal, err := s.store.ProposalByID(ctx, p.ProposalID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if proposal.RideID != p.RideID || proposal.DriverID != p.DriverID {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: proposal does not match ride", types.ErrProposalNotFound))
	}

	if err := s.store.AssignDriver(ctx, p.RideID, p.DriverID, proposal.Fare); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if err := s.store.DeleteProposalsByRide(ctx, p.RideID); err != nil {
		s.log.Warn(ctx, "clearing proposals failed", "error", err.Error())
	}

	user, err := s.store.AccountByID(ctx, p.UserID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	driver, err := s.store.AccountByID(ctx, p.DriverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	ride, err := s.store.RideByID(ctx, p.RideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	// The room name is the ride id; joining the tracking room uses it directly.
	session := &models.RideSession{
		RideRoom:        ride.ID,
		RideID:          ride.ID,
		PickupLocation:  models.LatLng{Lat: ride.Pickup.Latitude, Lng: ride.Pickup.Longitude},
		DropoffLocation: models.LatLng{Lat: ride.Dropoff.Latitude, Lng: ride.Dropoff.Longitude},
		UserName:        user.Name,
		UserPhone:       user.Phone,
		DriverName:      driver.Name,
		DriverPhone:     driver.Phone,
		LicensePlate:    driver.LicensePlate,
		Fare:            proposal.Fare,
	}

	metrics.RidesAcceptedTotal.Inc()
	s.events.RideMatched(ctx, events.RideEvent{
		RideID: ride.ID, UserID: p.UserID, DriverID: p.DriverID, Fare: proposal.Fare,
	})

	// The rider gets the session in the HTTP response; the driver gets it
	// pushed, racing their status poll.
	if err := s.gw.SendToDriver(p.DriverID, models.EventRideAccepted, models.RideAccepted(*session)); err != nil {
		s.log.Warn(ctx, "acceptance push failed, driver will catch it by polling", "error", err.Error())
	}

	s.log.Info(ctx, "proposal accepted", "driverId", p.DriverID, "fare", proposal.Fare)
	return session, nil
}

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

// RequestRide submits a new ride request and returns the ride id the backend
// assigned. The request body already carries the client-computed distance and
// fare estimate.
func (c *Client) RequestRide(ctx context.Context, token string, req models.RideRequest) (string, error) {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, req.UserID), "api_request_ride")

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
		RideID  string `json:"rideId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/rides/request", token, req, &resp); err != nil {
		return "", err
	}

	c.log.Info(wrap.WithRideID(ctx, resp.RideID), "ride requested",
		"vehicleType", req.VehicleType, "fare", req.Fare)
	return resp.RideID, nil
}

// ProposeFare submits a driver's price for a ride and returns the proposal id.
func (c *Client) ProposeFare(ctx context.Context, token, rideID, driverID string, fare float64) (string, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID), "api_propose_fare")

	body := struct {
		RideID   string  `json:"rideId"`
		DriverID string  `json:"driverId"`
		Fare     float64 `json:"fare"`
	}{RideID: rideID, DriverID: driverID, Fare: fare}

	var resp struct {
		Success    bool   `json:"success"`
		Message    string `json:"message,omitempty"`
		ProposalID string `json:"proposalId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/rides/ride-price-proposal", token, body, &resp); err != nil {
		return "", err
	}
	return resp.ProposalID, nil
}

// CheckRideStatus asks whether the ride a driver proposed on has moved. The
// driver app polls this while waiting for the rider's decision, alongside the
// pushed acceptance event.
func (c *Client) CheckRideStatus(ctx context.Context, token, driverID, rideID string) (types.RideStatus, error) {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID), "api_check_ride_status")

	q := url.Values{}
	q.Set("driverId", driverID)
	q.Set("rideId", rideID)

	var resp struct {
		Success bool             `json:"success"`
		Message string           `json:"message,omitempty"`
		Status  types.RideStatus `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/rides/check-ride-status?"+q.Encode(), token, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// AcceptFareProposal locks a proposal in and returns the ride session both
// parties will track. Any other pending proposals for the ride are dead after
// this call.
func (c *Client) AcceptFareProposal(ctx context.Context, token, userID string, p models.FareProposal) (*models.RideSession, error) {
	ctx = wrap.WithAction(wrap.WithRideID(wrap.WithUserID(ctx, userID), p.RideID), "api_accept_fare_proposal")

	body := struct {
		ProposalID string  `json:"proposalId"`
		RideID     string  `json:"rideId"`
		UserID     string  `json:"userId"`
		DriverID   string  `json:"driverId"`
		Fare       float64 `json:"fare"`
	}{
		ProposalID: p.ProposalID,
		RideID:     p.RideID,
		UserID:     userID,
		DriverID:   p.DriverID,
		Fare:       p.ProposedFare,
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
		models.RideSession
	}
	if err := c.do(ctx, http.MethodPost, "/api/rides/accept-fare-proposal", token, body, &resp); err != nil {
		return nil, err
	}

	session := resp.RideSession
	c.log.Info(ctx, "fare proposal accepted", "rideRoom", session.RideRoom, "fare", session.Fare)
	return &session, nil
}

package handler

import (
	"context"
	"net/http"

	"github.com/gocar-app/gocar/internal/backend/handler/dto"
	"github.com/gocar-app/gocar/internal/backend/middleware"
	"github.com/gocar-app/gocar/internal/backend/service"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/validator"
)

type RideService interface {
	Request(ctx context.Context, req models.RideRequest) (string, error)
	Propose(ctx context.Context, rideID, driverID string, fare float64) (string, error)
	Status(ctx context.Context, driverID, rideID string) (types.RideStatus, error)
	Accept(ctx context.Context, p service.AcceptParams) (*models.RideSession, error)
}

type Rides struct {
	rides RideService
	l     logger.Logger
}

func NewRides(rides RideService, l logger.Logger) *Rides {
	return &Rides{
		rides: rides,
		l:     l,
	}
}

func (h *Rides) Request(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "request_ride")

	req := &dto.RideRequestBody{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	// The body's userId must be the authenticated rider.
	if account := middleware.AccountFromContext(ctx); account == nil || account.ID != req.UserID {
		errorResponse(w, http.StatusForbidden, "userId does not match the authenticated user")
		return
	}

	rideID, err := h.rides.Request(ctx, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create ride request", err)
		serviceErrorResponse(w, err)
		return
	}

	h.writeEnvelope(w, ctx, http.StatusCreated, envelope{"success": true, "rideId": rideID})
}

func (h *Rides) ProposeFare(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "propose_fare")

	req := &dto.ProposeFareRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if account := middleware.AccountFromContext(ctx); account == nil || account.ID != req.DriverID {
		errorResponse(w, http.StatusForbidden, "driverId does not match the authenticated driver")
		return
	}

	proposalID, err := h.rides.Propose(ctx, req.RideID, req.DriverID, req.Fare)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	h.writeEnvelope(w, ctx, http.StatusCreated, envelope{"success": true, "proposalId": proposalID})
}

func (h *Rides) CheckStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "check_ride_status")

	driverID := r.URL.Query().Get("driverId")
	rideID := r.URL.Query().Get("rideId")
	if driverID == "" || rideID == "" {
		badRequestResponse(w, "driverId and rideId query parameters are required")
		return
	}

	status, err := h.rides.Status(ctx, driverID, rideID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	h.writeEnvelope(w, ctx, http.StatusOK, envelope{"success": true, "status": status})
}

func (h *Rides) AcceptProposal(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "accept_fare_proposal")

	req := &dto.AcceptProposalRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if account := middleware.AccountFromContext(ctx); account == nil || account.ID != req.UserID {
		errorResponse(w, http.StatusForbidden, "userId does not match the authenticated user")
		return
	}

	session, err := h.rides.Accept(ctx, service.AcceptParams{
		ProposalID: req.ProposalID,
		RideID:     req.RideID,
		UserID:     req.UserID,
		DriverID:   req.DriverID,
		Fare:       req.Fare,
	})
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to accept proposal", err)
		serviceErrorResponse(w, err)
		return
	}

	// The session payload is flattened into the envelope, per the mobile
	// contract.
	h.writeEnvelope(w, ctx, http.StatusOK, envelope{
		"success":         true,
		"rideRoom":        session.RideRoom,
		"rideId":          session.RideID,
		"pickupLocation":  session.PickupLocation,
		"dropoffLocation": session.DropoffLocation,
		"userName":        session.UserName,
		"userPhone":       session.UserPhone,
		"driverName":      session.DriverName,
		"driverPhone":     session.DriverPhone,
		"licensePlate":    session.LicensePlate,
		"fare":            session.Fare,
	})
}

func (h *Rides) writeEnvelope(w http.ResponseWriter, ctx context.Context, status int, env envelope) {
	if err := writeJSON(w, status, env, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		errorResponse(w, http.StatusInternalServerError, "failed to write JSON response")
	}
}

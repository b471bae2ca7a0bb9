package handler

import (
	"context"
	"net/http"

	"github.com/gocar-app/gocar/internal/backend/handler/dto"
	"github.com/gocar-app/gocar/internal/backend/middleware"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/validator"
)

type RentService interface {
	Create(ctx context.Context, ownerID string, r models.Rental) (*models.Rental, error)
	List(ctx context.Context) ([]models.Rental, error)
	ListByUser(ctx context.Context, userID string) ([]models.Rental, error)
	Update(ctx context.Context, callerID string, r models.Rental) error
	Delete(ctx context.Context, callerID, rentalID string) error
}

type Rent struct {
	rent RentService
	l    logger.Logger
}

func NewRent(rent RentService, l logger.Logger) *Rent {
	return &Rent{
		rent: rent,
		l:    l,
	}
}

func (h *Rent) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_rentals")

	rentals, err := h.rent.List(ctx)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}
	if rentals == nil {
		rentals = []models.Rental{}
	}

	h.writeEnvelope(w, ctx, http.StatusOK, envelope{"success": true, "rent": rentals})
}

func (h *Rent) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_user_rentals")

	userID := r.PathValue("id")
	rentals, err := h.rent.ListByUser(ctx, userID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}
	if rentals == nil {
		rentals = []models.Rental{}
	}

	h.writeEnvelope(w, ctx, http.StatusOK, envelope{"success": true, "rent": rentals})
}

func (h *Rent) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_rental")

	req := &dto.RentalRequest{}
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

	account := middleware.AccountFromContext(ctx)
	rental, err := h.rent.Create(ctx, account.ID, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create rental", err)
		serviceErrorResponse(w, err)
		return
	}

	h.writeEnvelope(w, ctx, http.StatusCreated, envelope{"success": true, "rent": rental})
}

func (h *Rent) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_rental")

	req := &dto.RentalRequest{}
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

	rental := req.ToModel()
	rental.ID = r.PathValue("id")

	account := middleware.AccountFromContext(ctx)
	if err := h.rent.Update(ctx, account.ID, rental); err != nil {
		serviceErrorResponse(w, err)
		return
	}

	h.writeEnvelope(w, ctx, http.StatusOK, envelope{"success": true})
}

func (h *Rent) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_rental")

	account := middleware.AccountFromContext(ctx)
	if err := h.rent.Delete(ctx, account.ID, r.PathValue("id")); err != nil {
		serviceErrorResponse(w, err)
		return
	}

	h.writeEnvelope(w, ctx, http.StatusOK, envelope{"success": true})
}

func (h *Rent) writeEnvelope(w http.ResponseWriter, ctx context.Context, status int, env envelope) {
	if err := writeJSON(w, status, env, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write JSON response", err)
		errorResponse(w, http.StatusInternalServerError, "failed to write JSON response")
	}
}

package service

import (
	"context"

	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/uuid"
)

type Rent struct {
	store store.RentalStore
	log   logger.Logger
}

func NewRent(st store.RentalStore, log logger.Logger) *Rent {
	return &Rent{store: st, log: log}
}

// Create stores a new listing owned by ownerID.
func (s *Rent) Create(ctx context.Context, ownerID string, r models.Rental) (*models.Rental, error) {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, ownerID), "rent_create")

	r.ID = uuid.NewString()
	r.UserID = ownerID
	r.Active = true
	if err := s.store.CreateRental(ctx, &r); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "rental listed", "rentalId", r.ID, "title", r.Title)
	return &r, nil
}

func (s *Rent) List(ctx context.Context) ([]models.Rental, error) {
	return s.store.Rentals(ctx)
}

func (s *Rent) ListByUser(ctx context.Context, userID string) ([]models.Rental, error) {
	return s.store.RentalsByUser(ctx, userID)
}

// Update replaces a listing. Only the owner may touch it.
func (s *Rent) Update(ctx context.Context, callerID string, r models.Rental) error {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, callerID), "rent_update")

	existing, err := s.store.RentalByID(ctx, r.ID)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if existing.UserID != callerID {
		return wrap.Error(ctx, types.ErrRentalNotFound)
	}

	r.UserID = existing.UserID
	if err := s.store.UpdateRental(ctx, &r); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// Delete removes a listing. Only the owner may.
func (s *Rent) Delete(ctx context.Context, callerID, rentalID string) error {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, callerID), "rent_delete")

	existing, err := s.store.RentalByID(ctx, rentalID)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if existing.UserID != callerID {
		return wrap.Error(ctx, types.ErrRentalNotFound)
	}

	if err := s.store.DeleteRental(ctx, rentalID); err != nil {
		return wrap.Error(ctx, err)
	}
	s.log.Info(ctx, "rental removed", "rentalId", rentalID)
	return nil
}

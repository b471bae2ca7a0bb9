// Package store is the backend's persistence layer. The interface is served
// by an in-memory implementation for development and tests and by Postgres
// when a DSN is configured.
package store

import (
	"context"
	"time"

	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
)

// Account is a registered rider or driver.
type Account struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         types.Role
	PasswordHash string
	Gender       types.Gender
	IsStudent    bool
	VehicleInfo  string
	LicensePlate string
	CreatedAt    time.Time
}

// Identity strips the account down to what clients may see.
func (a *Account) Identity() *models.Identity {
	return &models.Identity{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		Role:        a.Role,
		IsStudent:   a.IsStudent,
		Gender:      a.Gender,
		VehicleInfo: a.VehicleInfo,
	}
}

// Ride is one ride request through its lifecycle.
type Ride struct {
	ID               string
	UserID           string
	Pickup           models.Location
	Dropoff          models.Location
	VehicleType      types.VehicleType
	FemaleDriverOnly bool
	DistanceKm       float64
	Fare             int
	Status           types.RideStatus
	DriverID         string // set once matched
	FinalFare        float64
	CreatedAt        time.Time
}

// Proposal is a driver's pending price offer on a ride.
type Proposal struct {
	ID        string
	RideID    string
	DriverID  string
	Fare      float64
	CreatedAt time.Time
}

type Store interface {
	AccountStore
	RideStore
	RentalStore
	VerificationStore
}

type AccountStore interface {
	CreateAccount(ctx context.Context, a *Account) error
	AccountByPhone(ctx context.Context, phone string, role types.Role) (*Account, error)
	AccountByEmail(ctx context.Context, email string, role types.Role) (*Account, error)
	AccountByID(ctx context.Context, id string) (*Account, error)
}

type RideStore interface {
	CreateRide(ctx context.Context, r *Ride) error
	RideByID(ctx context.Context, id string) (*Ride, error)
	UpdateRideStatus(ctx context.Context, id string, status types.RideStatus) error

	// AssignDriver moves a pending ride to in_progress with the winning
	// driver. A ride that is no longer pending returns ErrRideAlreadyMatched,
	// which is what makes acceptance exactly-once.
	AssignDriver(ctx context.Context, rideID, driverID string, fare float64) error

	CreateProposal(ctx context.Context, p *Proposal) error
	ProposalByID(ctx context.Context, id string) (*Proposal, error)
	DeleteProposalsByRide(ctx context.Context, rideID string) error
}

type RentalStore interface {
	CreateRental(ctx context.Context, r *models.Rental) error
	RentalByID(ctx context.Context, id string) (*models.Rental, error)
	Rentals(ctx context.Context) ([]models.Rental, error)
	RentalsByUser(ctx context.Context, userID string) ([]models.Rental, error)
	UpdateRental(ctx context.Context, r *models.Rental) error
	DeleteRental(ctx context.Context, id string) error
}

type VerificationStore interface {
	SaveVerification(ctx context.Context, v *models.StudentVerification) error
}

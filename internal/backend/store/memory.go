package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
)

// Memory keeps everything in maps. It is the default store: the backend runs
// without any external service, and tests run against it directly.
type Memory struct {
	mu            sync.RWMutex
	accounts      map[string]*Account
	rides         map[string]*Ride
	proposals     map[string]*Proposal
	rentals       map[string]*models.Rental
	verifications []models.StudentVerification
}

func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[string]*Account),
		rides:     make(map[string]*Ride),
		proposals: make(map[string]*Proposal),
		rentals:   make(map[string]*models.Rental),
	}
}

func (m *Memory) CreateAccount(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.Role != a.Role {
			continue
		}
		if a.Phone != "" && existing.Phone == a.Phone {
			return types.ErrUserAlreadyExists
		}
		if a.Email != "" && existing.Email == a.Email {
			return types.ErrUserAlreadyExists
		}
	}

	cp := *a
	cp.CreatedAt = time.Now().UTC()
	m.accounts[a.ID] = &cp
	return nil
}

func (m *Memory) AccountByPhone(_ context.Context, phone string, role types.Role) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Phone == phone && a.Role == role {
			cp := *a
			return &cp, nil
		}
	}
	return nil, types.ErrUserNotFound
}

func (m *Memory) AccountByEmail(_ context.Context, email string, role types.Role) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if a.Email == email && a.Role == role {
			cp := *a
			return &cp, nil
		}
	}
	return nil, types.ErrUserNotFound
}

func (m *Memory) AccountByID(_ context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) CreateRide(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	cp.CreatedAt = time.Now().UTC()
	m.rides[r.ID] = &cp
	return nil
}

func (m *Memory) RideByID(_ context.Context, id string) (*Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rides[id]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) UpdateRideStatus(_ context.Context, id string, status types.RideStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rides[id]
	if !ok {
		return types.ErrRideNotFound
	}
	r.Status = status
	return nil
}

func (m *Memory) AssignDriver(_ context.Context, rideID, driverID string, fare float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rides[rideID]
	if !ok {
		return types.ErrRideNotFound
	}
	if r.Status != types.RideStatusPending {
		return types.ErrRideAlreadyMatched
	}
	r.Status = types.RideStatusInProgress
	r.DriverID = driverID
	r.FinalFare = fare
	return nil
}

func (m *Memory) CreateProposal(_ context.Context, p *Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	cp.CreatedAt = time.Now().UTC()
	m.proposals[p.ID] = &cp
	return nil
}

func (m *Memory) ProposalByID(_ context.Context, id string) (*Proposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.proposals[id]
	if !ok {
		return nil, types.ErrProposalNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) DeleteProposalsByRide(_ context.Context, rideID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, p := range m.proposals {
		if p.RideID == rideID {
			delete(m.proposals, id)
		}
	}
	return nil
}

func (m *Memory) CreateRental(_ context.Context, r *models.Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	cp.CreatedAt = time.Now().UTC()
	m.rentals[r.ID] = &cp
	r.CreatedAt = cp.CreatedAt
	return nil
}

func (m *Memory) RentalByID(_ context.Context, id string) (*models.Rental, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rentals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrRentalNotFound, id)
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) Rentals(_ context.Context) ([]models.Rental, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Rental, 0, len(m.rentals))
	for _, r := range m.rentals {
		out = append(out, *r)
	}
	sortRentals(out)
	return out, nil
}

func (m *Memory) RentalsByUser(_ context.Context, userID string) ([]models.Rental, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Rental
	for _, r := range m.rentals {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sortRentals(out)
	return out, nil
}

func (m *Memory) UpdateRental(_ context.Context, r *models.Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.rentals[r.ID]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrRentalNotFound, r.ID)
	}
	cp := *r
	cp.CreatedAt = existing.CreatedAt
	m.rentals[r.ID] = &cp
	return nil
}

func (m *Memory) DeleteRental(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rentals[id]; !ok {
		return fmt.Errorf("%w: %s", types.ErrRentalNotFound, id)
	}
	delete(m.rentals, id)
	return nil
}

func (m *Memory) SaveVerification(_ context.Context, v *models.StudentVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, *v)
	return nil
}

func sortRentals(rs []models.Rental) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
)

// Postgres serves the Store interface from a pgx pool. Schema lives in
// migrations/001_init.sql.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateAccount(ctx context.Context, a *Account) error {
	const op = "Postgres.CreateAccount"
	query := `
		INSERT INTO accounts(id, name, email, phone, role, password_hash, gender, is_student, vehicle_info, license_plate)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := s.db.Exec(ctx, query,
		a.ID, a.Name, a.Email, a.Phone, a.Role, a.PasswordHash,
		a.Gender, a.IsStudent, a.VehicleInfo, a.LicensePlate,
	); err != nil {
		if isUniqueViolation(err) {
			return types.ErrUserAlreadyExists
		}
		return fmt.Errorf("%s: %v", op, err)
	}
	return nil
}

func (s *Postgres) AccountByPhone(ctx context.Context, phone string, role types.Role) (*Account, error) {
	const op = "Postgres.AccountByPhone"
	return s.accountWhere(ctx, op, "phone = $1 AND role = $2", phone, role)
}

func (s *Postgres) AccountByEmail(ctx context.Context, email string, role types.Role) (*Account, error) {
	const op = "Postgres.AccountByEmail"
	return s.accountWhere(ctx, op, "email = $1 AND role = $2", email, role)
}

func (s *Postgres) AccountByID(ctx context.Context, id string) (*Account, error) {
	const op = "Postgres.AccountByID"
	return s.accountWhere(ctx, op, "id = $1", id)
}

func (s *Postgres) accountWhere(ctx context.Context, op, where string, args ...any) (*Account, error) {
	query := `
		SELECT id, name, email, phone, role, password_hash, gender, is_student, vehicle_info, license_plate, created_at
		FROM accounts
		WHERE ` + where

	var a Account
	if err := s.db.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.Role, &a.PasswordHash,
		&a.Gender, &a.IsStudent, &a.VehicleInfo, &a.LicensePlate, &a.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &a, nil
}

func (s *Postgres) CreateRide(ctx context.Context, r *Ride) error {
	const op = "Postgres.CreateRide"
	query := `
		INSERT INTO rides(id, user_id, pickup_lat, pickup_lng, pickup_address,
			dropoff_lat, dropoff_lng, dropoff_address,
			vehicle_type, female_driver_only, distance_km, fare, status)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	if _, err := s.db.Exec(ctx, query,
		r.ID, r.UserID,
		r.Pickup.Latitude, r.Pickup.Longitude, r.Pickup.Address,
		r.Dropoff.Latitude, r.Dropoff.Longitude, r.Dropoff.Address,
		r.VehicleType, r.FemaleDriverOnly, r.DistanceKm, r.Fare, r.Status,
	); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	return nil
}

func (s *Postgres) RideByID(ctx context.Context, id string) (*Ride, error) {
	const op = "Postgres.RideByID"
	query := `
		SELECT id, user_id, pickup_lat, pickup_lng, pickup_address,
			dropoff_lat, dropoff_lng, dropoff_address,
			vehicle_type, female_driver_only, distance_km, fare, status,
			COALESCE(driver_id, ''), COALESCE(final_fare, 0), created_at
		FROM rides
		WHERE id = $1`

	var r Ride
	if err := s.db.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.UserID,
		&r.Pickup.Latitude, &r.Pickup.Longitude, &r.Pickup.Address,
		&r.Dropoff.Latitude, &r.Dropoff.Longitude, &r.Dropoff.Address,
		&r.VehicleType, &r.FemaleDriverOnly, &r.DistanceKm, &r.Fare, &r.Status,
		&r.DriverID, &r.FinalFare, &r.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &r, nil
}

func (s *Postgres) UpdateRideStatus(ctx context.Context, id string, status types.RideStatus) error {
	const op = "Postgres.UpdateRideStatus"
	query := `UPDATE rides SET status = $2 WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRideNotFound
	}
	return nil
}

func (s *Postgres) AssignDriver(ctx context.Context, rideID, driverID string, fare float64) error {
	const op = "Postgres.AssignDriver"

	// The status guard in the WHERE clause is what makes acceptance
	// exactly-once under concurrent accepts.
	query := `
		UPDATE rides
		SET status = $2, driver_id = $3, final_fare = $4
		WHERE id = $1 AND status = $5`

	tag, err := s.db.Exec(ctx, query, rideID,
		types.RideStatusInProgress, driverID, fare, types.RideStatusPending)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.RideByID(ctx, rideID); err != nil {
			return err
		}
		return types.ErrRideAlreadyMatched
	}
	return nil
}

func (s *Postgres) CreateProposal(ctx context.Context, p *Proposal) error {
	const op = "Postgres.CreateProposal"
	query := `
		INSERT INTO proposals(id, ride_id, driver_id, fare)
		VALUES($1, $2, $3, $4)`

	if _, err := s.db.Exec(ctx, query, p.ID, p.RideID, p.DriverID, p.Fare); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	return nil
}

func (s *Postgres) ProposalByID(ctx context.Context, id string) (*Proposal, error) {
	const op = "Postgres.ProposalByID"
	query := `
		SELECT id, ride_id, driver_id, fare, created_at
		FROM proposals
		WHERE id = $1`

	var p Proposal
	if err := s.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.RideID, &p.DriverID, &p.Fare, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrProposalNotFound
		}
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &p, nil
}

func (s *Postgres) DeleteProposalsByRide(ctx context.Context, rideID string) error {
	const op = "Postgres.DeleteProposalsByRide"
	if _, err := s.db.Exec(ctx, `DELETE FROM proposals WHERE ride_id = $1`, rideID); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	return nil
}

func (s *Postgres) CreateRental(ctx context.Context, r *models.Rental) error {
	const op = "Postgres.CreateRental"
	query := `
		INSERT INTO rentals(id, user_id, title, description, price, category, location, images, active)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	if err := s.db.QueryRow(ctx, query,
		r.ID, r.UserID, r.Title, r.Description, r.Price, r.Category, r.Location, r.Images, r.Active,
	).Scan(&r.CreatedAt); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	return nil
}

func (s *Postgres) RentalByID(ctx context.Context, id string) (*models.Rental, error) {
	const op = "Postgres.RentalByID"
	query := rentalSelect + ` WHERE id = $1`

	var r models.Rental
	if err := s.db.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.UserID, &r.Title, &r.Description, &r.Price,
		&r.Category, &r.Location, &r.Images, &r.Active, &r.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRentalNotFound
		}
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	return &r, nil
}

const rentalSelect = `
	SELECT id, user_id, title, description, price, category, location, images, active, created_at
	FROM rentals`

func (s *Postgres) Rentals(ctx context.Context) ([]models.Rental, error) {
	const op = "Postgres.Rentals"
	return s.rentalsQuery(ctx, op, rentalSelect+` ORDER BY created_at`)
}

func (s *Postgres) RentalsByUser(ctx context.Context, userID string) ([]models.Rental, error) {
	const op = "Postgres.RentalsByUser"
	return s.rentalsQuery(ctx, op, rentalSelect+` WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (s *Postgres) rentalsQuery(ctx context.Context, op, query string, args ...any) ([]models.Rental, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	defer rows.Close()

	var out []models.Rental
	for rows.Next() {
		var r models.Rental
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Title, &r.Description, &r.Price,
			&r.Category, &r.Location, &r.Images, &r.Active, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %v", op, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateRental(ctx context.Context, r *models.Rental) error {
	const op = "Postgres.UpdateRental"
	query := `
		UPDATE rentals
		SET title = $2, description = $3, price = $4, category = $5, location = $6, images = $7, active = $8
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query,
		r.ID, r.Title, r.Description, r.Price, r.Category, r.Location, r.Images, r.Active)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRentalNotFound
	}
	return nil
}

func (s *Postgres) DeleteRental(ctx context.Context, id string) error {
	const op = "Postgres.DeleteRental"
	tag, err := s.db.Exec(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrRentalNotFound
	}
	return nil
}

func (s *Postgres) SaveVerification(ctx context.Context, v *models.StudentVerification) error {
	const op = "Postgres.SaveVerification"
	query := `
		INSERT INTO student_verifications(user_id, docs_url)
		VALUES($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET docs_url = EXCLUDED.docs_url`

	if _, err := s.db.Exec(ctx, query, v.UserID, v.DocsURL); err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}
	return nil
}

// isUniqueViolation reports a Postgres 23505 error.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

// Package service holds the backend's business logic, between the HTTP
// handlers and the store.
package service

import (
	"context"

	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/internal/backend/token"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/passhash"
	"github.com/gocar-app/gocar/pkg/uuid"
)

type Auth struct {
	accounts store.AccountStore
	tokens   *token.Service
	log      logger.Logger
}

func NewAuth(accounts store.AccountStore, tokens *token.Service, log logger.Logger) *Auth {
	return &Auth{
		accounts: accounts,
		tokens:   tokens,
		log:      log,
	}
}

// RegisterParams covers both rider and driver sign-up; the role decides which
// fields matter.
type RegisterParams struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	Gender       types.Gender
	VehicleInfo  string
	LicensePlate string
}

// Register creates an account and signs it in.
func (s *Auth) Register(ctx context.Context, role types.Role, p RegisterParams) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "auth_register")

	hash, err := passhash.HashPassword(p.Password)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	account := &store.Account{
		ID:           uuid.NewString(),
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		Role:         role,
		PasswordHash: hash,
		Gender:       p.Gender,
		VehicleInfo:  p.VehicleInfo,
		LicensePlate: p.LicensePlate,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(wrap.WithUserID(ctx, account.ID), "account registered", "role", role)
	return s.signedIdentity(ctx, account)
}

// LoginUser authenticates a rider by phone.
func (s *Auth) LoginUser(ctx context.Context, phone, password string) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "auth_login_user")

	account, err := s.accounts.AccountByPhone(ctx, phone, types.RoleUser)
	return s.login(ctx, account, err, password)
}

// LoginDriver authenticates a driver by email.
func (s *Auth) LoginDriver(ctx context.Context, email, password string) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "auth_login_driver")

	account, err := s.accounts.AccountByEmail(ctx, email, types.RoleDriver)
	return s.login(ctx, account, err, password)
}

func (s *Auth) login(ctx context.Context, account *store.Account, lookupErr error, password string) (*models.Identity, error) {
	if lookupErr != nil {
		// A missing account and a bad password look identical to the caller.
		return nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	if ok, err := passhash.VerifyPassword(password, account.PasswordHash); err != nil || !ok {
		return nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	return s.signedIdentity(ctx, account)
}

func (s *Auth) signedIdentity(ctx context.Context, account *store.Account) (*models.Identity, error) {
	tok, err := s.tokens.Mint(account)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	identity := account.Identity()
	identity.Token = tok
	return identity, nil
}

// Authenticate resolves a bearer token to its account. Used by middleware.
func (s *Auth) Authenticate(ctx context.Context, tokenStr string) (*store.Account, error) {
	claims, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return nil, err
	}
	return s.accounts.AccountByID(ctx, claims.UserID)
}

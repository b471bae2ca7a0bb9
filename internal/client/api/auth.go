package api

import (
	"context"
	"net/http"

	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

type authResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	User    *models.Identity `json:"user"`
}

// RegisterUserParams is the rider sign-up form.
type RegisterUserParams struct {
	Name     string       `json:"name"`
	Email    string       `json:"email,omitempty"`
	Phone    string       `json:"phone"`
	Password string       `json:"password"`
	Gender   types.Gender `json:"gender,omitempty"`
}

// RegisterDriverParams is the driver sign-up form. Drivers authenticate by
// email, riders by phone; both shapes come from the backend contract.
type RegisterDriverParams struct {
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	Password     string       `json:"password"`
	Gender       types.Gender `json:"gender,omitempty"`
	VehicleInfo  string       `json:"vehicleInfo,omitempty"`
	LicensePlate string       `json:"licensePlate,omitempty"`
}

// LoginUser signs a rider in with phone and password. The returned identity
// carries the bearer token for every authenticated call that follows.
func (c *Client) LoginUser(ctx context.Context, phone, password string) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "api_login_user")

	body := struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}{Phone: phone, Password: password}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	resp.User.Role = types.RoleUser
	c.log.Info(wrap.WithUserID(ctx, resp.User.ID), "rider signed in")
	return resp.User, nil
}

// RegisterUser creates a rider account and signs it in.
func (c *Client) RegisterUser(ctx context.Context, params RegisterUserParams) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "api_register_user")

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", params, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	resp.User.Role = types.RoleUser
	return resp.User, nil
}

// LoginDriver signs a driver in with email and password.
func (c *Client) LoginDriver(ctx context.Context, email, password string) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "api_login_driver")

	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/driver/login", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	resp.User.Role = types.RoleDriver
	c.log.Info(wrap.WithUserID(ctx, resp.User.ID), "driver signed in")
	return resp.User, nil
}

// RegisterDriver creates a driver account and signs it in.
func (c *Client) RegisterDriver(ctx context.Context, params RegisterDriverParams) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "api_register_driver")

	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/driver/register", "", params, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	resp.User.Role = types.RoleDriver
	return resp.User, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/gocar-app/gocar/internal/domain/models"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

type rentListResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Rent    []models.Rental `json:"rent"`
}

type rentResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Rent    *models.Rental `json:"rent"`
}

// ListRentals fetches every active rental listing.
func (c *Client) ListRentals(ctx context.Context, token string) ([]models.Rental, error) {
	ctx = wrap.WithAction(ctx, "api_list_rentals")

	var resp rentListResponse
	if err := c.do(ctx, http.MethodGet, "/api/rent", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rent, nil
}

// ListUserRentals fetches the listings one user owns.
func (c *Client) ListUserRentals(ctx context.Context, token, userID string) ([]models.Rental, error) {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, userID), "api_list_user_rentals")

	var resp rentListResponse
	if err := c.do(ctx, http.MethodGet, "/api/rent/user/"+userID, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rent, nil
}

// CreateRental posts a new listing and returns it with the server-assigned id.
func (c *Client) CreateRental(ctx context.Context, token string, rental models.Rental) (*models.Rental, error) {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, rental.UserID), "api_create_rental")

	var resp rentResponse
	if err := c.do(ctx, http.MethodPost, "/api/rent", token, rental, &resp); err != nil {
		return nil, err
	}
	return resp.Rent, nil
}

// UpdateRental replaces an existing listing.
func (c *Client) UpdateRental(ctx context.Context, token string, rental models.Rental) error {
	ctx = wrap.WithAction(ctx, "api_update_rental")

	return c.do(ctx, http.MethodPut, "/api/rent/"+rental.ID, token, rental, nil)
}

// DeleteRental removes a listing.
func (c *Client) DeleteRental(ctx context.Context, token, rentalID string) error {
	ctx = wrap.WithAction(ctx, "api_delete_rental")

	return c.do(ctx, http.MethodDelete, "/api/rent/delete/"+rentalID, token, nil, nil)
}

package models

import (
	"github.com/gocar-app/gocar/internal/domain/types"
)

// Identity is the authenticated user of the app, rider or driver. It is what
// the auth endpoints return and what the session store persists as a single
// blob between launches.
type Identity struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone"`
	Role        types.Role   `json:"role"`
	Token       string       `json:"token"`
	IsStudent   bool         `json:"isStudent,omitempty"`
	Gender      types.Gender `json:"gender,omitempty"`
	VehicleInfo string       `json:"vehicleInfo,omitempty"`
}

func (i *Identity) IsDriver() bool {
	return i != nil && i.Role == types.RoleDriver
}

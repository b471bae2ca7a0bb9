// Package dto holds the request bodies of the HTTP API and their validation.
package dto

import (
	"github.com/gocar-app/gocar/internal/backend/service"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/validator"
)

type RegisterUserRequest struct {
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Phone    string       `json:"phone"`
	Password string       `json:"password"`
	Gender   types.Gender `json:"gender"`
}

func (r *RegisterUserRequest) Validate(v *validator.Validator) {
	v.Check(validator.NotBlank(r.Name), "name", "must be provided")
	v.Check(validator.Matches(r.Phone, validator.PhoneRX), "phone", "must be a valid phone number")
	v.Check(len(r.Password) >= 8, "password", "must be at least 8 characters")
	if r.Email != "" {
		v.Check(validator.Matches(r.Email, validator.EmailRX), "email", "must be a valid email address")
	}
}

func (r *RegisterUserRequest) ToParams() service.RegisterParams {
	return service.RegisterParams{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Password: r.Password,
		Gender:   r.Gender,
	}
}

type RegisterDriverRequest struct {
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	Password     string       `json:"password"`
	Gender       types.Gender `json:"gender"`
	VehicleInfo  string       `json:"vehicleInfo"`
	LicensePlate string       `json:"licensePlate"`
}

func (r *RegisterDriverRequest) Validate(v *validator.Validator) {
	v.Check(validator.NotBlank(r.Name), "name", "must be provided")
	v.Check(validator.Matches(r.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(validator.Matches(r.Phone, validator.PhoneRX), "phone", "must be a valid phone number")
	v.Check(len(r.Password) >= 8, "password", "must be at least 8 characters")
	v.Check(validator.NotBlank(r.LicensePlate), "licensePlate", "must be provided")
}

func (r *RegisterDriverRequest) ToParams() service.RegisterParams {
	return service.RegisterParams{
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Password:     r.Password,
		Gender:       r.Gender,
		VehicleInfo:  r.VehicleInfo,
		LicensePlate: r.LicensePlate,
	}
}

type LoginUserRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (r *LoginUserRequest) Validate(v *validator.Validator) {
	v.Check(validator.NotBlank(r.Phone), "phone", "must be provided")
	v.Check(validator.NotBlank(r.Password), "password", "must be provided")
}

type LoginDriverRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginDriverRequest) Validate(v *validator.Validator) {
	v.Check(validator.NotBlank(r.Email), "email", "must be provided")
	v.Check(validator.NotBlank(r.Password), "password", "must be provided")
}

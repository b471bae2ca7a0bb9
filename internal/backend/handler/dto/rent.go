package dto

import (
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/pkg/validator"
)

type RentalRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Images      []string `json:"images"`
	Active      bool     `json:"active"`
}

func (r *RentalRequest) Validate(v *validator.Validator) {
	v.Check(validator.NotBlank(r.Title), "title", "must be provided")
	v.Check(r.Price > 0, "price", "must be positive")
}

func (r *RentalRequest) ToModel() models.Rental {
	return models.Rental{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		Location:    r.Location,
		Images:      r.Images,
		Active:      r.Active,
	}
}

type VerificationRequest struct {
	UserID  string `json:"userId"`
	DocsURL string `json:"docsUrl"`
}

func (r *VerificationRequest) Validate(v *validator.Validator) {
	v.Check(validator.NotBlank(r.UserID), "userId", "must be provided")
	v.Check(validator.NotBlank(r.DocsURL), "docsUrl", "must be provided")
}

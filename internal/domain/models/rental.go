package models

import "time"

// Rental is a vehicle-rental listing (the "ads" surface of the app).
type Rental struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Images      []string  `json:"images,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// StudentVerification is a rider's request to be marked as a student.
type StudentVerification struct {
	UserID  string `json:"userId"`
	DocsURL string `json:"docsUrl"`
}

package types

import "errors"

var (
	// Session store
	ErrNoSavedState       = errors.New("no saved state")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Auth
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrNotAuthenticated   = errors.New("not authenticated")

	// Rides
	ErrRideNotFound       = errors.New("ride not found")
	ErrProposalNotFound   = errors.New("fare proposal not found")
	ErrRideAlreadyMatched = errors.New("ride already matched")
	ErrNoActiveRide       = errors.New("no active ride")
	ErrDriverNotEligible  = errors.New("driver not eligible for this request")

	// Rentals
	ErrRentalNotFound = errors.New("rental listing not found")

	// Channel
	ErrChannelClosed = errors.New("channel closed")
	ErrConnectFailed = errors.New("failed to connect to channel")
	ErrUnknownEvent  = errors.New("unknown channel event")
	ErrNotConnected  = errors.New("channel not connected")
)

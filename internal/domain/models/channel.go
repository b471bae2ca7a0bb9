package models

import (
	"encoding/json"
	"fmt"

	"github.com/gocar-app/gocar/internal/domain/types"
)

// Event names are the wire contract of the real-time channel. Renaming any of
// them breaks interop with deployed clients.
const (
	// client -> server
	EventDriverJoin          = "driver-join"
	EventUserJoin            = "user-join"
	EventJoinRideRoom        = "join-ride-room-server"
	EventLeaveRideRoom       = "leave-ride-room"
	EventShareDriverLocation = "share-driver-location"
	EventStartRide           = "start-ride"
	EventStopRide            = "stop-ride"
	EventCancelRide          = "cancel-ride"

	// server -> client
	EventRideRequest          = "ride-request"
	EventRideAccepted         = "ride-accepted"
	EventFareProposal         = "fare-proposal"
	EventNoDriversAvailable   = "no-drivers-available"
	EventDriverLocationUpdate = "driver-location-update"
	EventRideStatusUpdate     = "ride-status-update"
	EventRideStarted          = "ride-started"
	EventRideStopped          = "ride-stopped"
	EventRideCancelled        = "ride-cancelled"
)

// Envelope frames every channel message as an event name plus payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope builds an Envelope around the given payload.
func NewEnvelope(event string, payload any) (Envelope, error) {
	env := Envelope{Event: event}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	env.Data = data
	return env, nil
}

/* ======================= client -> server payloads ======================= */

type DriverJoin struct {
	DriverID string `json:"driverId"`
}

type UserJoin struct {
	UserID string `json:"userId"`
}

// JoinRideRoom subscribes a participant to the tracking room of one ride.
// RideID carries the room name, matching the mobile contract.
type JoinRideRoom struct {
	RideID   string         `json:"rideId"`
	UserID   string         `json:"userId"`
	UserType types.UserType `json:"userType"`
}

type LeaveRideRoom struct {
	RideID string `json:"rideId"`
	UserID string `json:"userId"`
}

type ShareDriverLocation struct {
	RideRoom  string  `json:"rideRoom"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type StartRide struct {
	RideID    string `json:"rideId"`
	UserID    string `json:"userId"`
	StartTime string `json:"startTime"` // RFC 3339
}

type StopRide struct {
	RideID  string `json:"rideId"`
	UserID  string `json:"userId"`
	EndTime string `json:"endTime"` // RFC 3339
}

type CancelRide struct {
	RideID string             `json:"rideId"`
	UserID string             `json:"userId"`
	Reason types.CancelReason `json:"reason"`
}

/* ======================= server -> client payloads ======================= */

// RideAccepted is pushed to both parties once a proposal is accepted and
// carries the full tracking-session payload.
type RideAccepted RideSession

type NoDriversAvailable struct{}

type DriverLocationUpdate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status,omitempty"`
}

type RideStatusUpdate struct {
	Status string `json:"status"`
}

type RideStarted struct {
	StartTime string `json:"startTime"`
}

type RideStopped struct {
	DurationMin float64 `json:"duration"`
}

type RideCancelled struct {
	Reason types.CancelReason `json:"reason"`
}

// DecodeEvent turns an envelope into its typed payload. Unknown event names
// come back as types.ErrUnknownEvent so callers can log and drop them instead
// of guessing at the shape.
func DecodeEvent(env Envelope) (any, error) {
	var payload any

	switch env.Event {
	case EventDriverJoin:
		payload = &DriverJoin{}
	case EventUserJoin:
		payload = &UserJoin{}
	case EventJoinRideRoom:
		payload = &JoinRideRoom{}
	case EventLeaveRideRoom:
		payload = &LeaveRideRoom{}
	case EventShareDriverLocation:
		payload = &ShareDriverLocation{}
	case EventStartRide:
		payload = &StartRide{}
	case EventStopRide:
		payload = &StopRide{}
	case EventCancelRide:
		payload = &CancelRide{}
	case EventRideRequest:
		payload = &RideOffer{}
	case EventRideAccepted:
		payload = &RideAccepted{}
	case EventFareProposal:
		payload = &FareProposal{}
	case EventNoDriversAvailable:
		payload = &NoDriversAvailable{}
	case EventDriverLocationUpdate:
		payload = &DriverLocationUpdate{}
	case EventRideStatusUpdate:
		payload = &RideStatusUpdate{}
	case EventRideStarted:
		payload = &RideStarted{}
	case EventRideStopped:
		payload = &RideStopped{}
	case EventRideCancelled:
		payload = &RideCancelled{}
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownEvent, env.Event)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, payload); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", env.Event, err)
		}
	}

	return payload, nil
}

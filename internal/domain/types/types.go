package types

// AppMode selects which part of the system a process runs.
type AppMode string

const (
	ModeBackend     AppMode = "backend"
	ModeRiderSim    AppMode = "rider"
	ModeDriverSim   AppMode = "driver"
	ModeUnspecified AppMode = ""
)

// Role is the authenticated identity kind. The wire value "user" is kept for
// riders because that is what the backend contract uses.
type Role string

const (
	RoleUser   Role = "user"
	RoleDriver Role = "driver"
)

func (r Role) String() string { return string(r) }

// UserType tags a tracking-room participant.
type UserType string

const (
	UserTypePassenger UserType = "passenger"
	UserTypeDriver    UserType = "driver"
)

// UserTypeFor maps an identity role to its tracking-room participant tag.
func UserTypeFor(r Role) UserType {
	if r == RoleDriver {
		return UserTypeDriver
	}
	return UserTypePassenger
}

// VehicleType of a ride request.
type VehicleType string

const (
	VehicleBike VehicleType = "bike"
	VehicleCar  VehicleType = "car"
)

// RideStatus as reported by the status poll endpoint.
type RideStatus string

const (
	RideStatusPending    RideStatus = "pending"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// CancelReason carried by the cancel-ride event.
type CancelReason string

const (
	CancelledByDriver    CancelReason = "driver_cancelled"
	CancelledByPassenger CancelReason = "passenger_cancelled"
)

// CancelReasonFor picks the role-tagged cancellation reason.
func CancelReasonFor(r Role) CancelReason {
	if r == RoleDriver {
		return CancelledByDriver
	}
	return CancelledByPassenger
}

// Gender of a driver, used for female-driver-only requests.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

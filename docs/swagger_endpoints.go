// Swagger annotations for the backend HTTP surface. The handlers themselves
// stay clean; routes are documented here.

package docs

// RegisterUser godoc
// @Summary      Register a rider
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterUserRequest true "Rider registration details"
// @Success      201 {object} map[string]interface{} "Identity with bearer token"
// @Failure      409 {object} map[string]interface{} "Phone already registered"
// @Failure      422 {object} map[string]interface{} "Validation error"
// @Router       /api/auth/register [post]

// LoginUser godoc
// @Summary      Rider login by phone
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginUserRequest true "Phone and password"
// @Success      200 {object} map[string]interface{} "Identity with bearer token"
// @Failure      401 {object} map[string]interface{} "Invalid credentials"
// @Router       /api/auth/login [post]

// RegisterDriver godoc
// @Summary      Register a driver
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterDriverRequest true "Driver registration details"
// @Success      201 {object} map[string]interface{} "Identity with bearer token"
// @Failure      409 {object} map[string]interface{} "Email already registered"
// @Router       /api/auth/driver/register [post]

// LoginDriver godoc
// @Summary      Driver login by email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginDriverRequest true "Email and password"
// @Success      200 {object} map[string]interface{} "Identity with bearer token"
// @Failure      401 {object} map[string]interface{} "Invalid credentials"
// @Router       /api/auth/driver/login [post]

// RequestRide godoc
// @Summary      Create a ride request
// @Description  Fans the request out to online drivers over the socket; pushes no-drivers-available back to the rider when nobody is online.
// @Tags         rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RideRequestBody true "Trip, vehicle type and estimated fare"
// @Success      201 {object} map[string]interface{} "Ride ID"
// @Failure      403 {object} map[string]interface{} "Body userId does not match caller"
// @Router       /api/rides/request [post]

// ProposeFare godoc
// @Summary      Driver proposes a fare for a ride
// @Tags         rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ProposeFareRequest true "Ride ID and proposed fare"
// @Success      201 {object} map[string]interface{} "Proposal ID"
// @Failure      403 {object} map[string]interface{} "Driver not eligible for this ride"
// @Failure      409 {object} map[string]interface{} "Ride already matched"
// @Router       /api/rides/ride-price-proposal [post]

// CheckRideStatus godoc
// @Summary      Driver polls whether their proposal won
// @Tags         rides
// @Produce      json
// @Security     BearerAuth
// @Param        driverId query string true "Driver ID"
// @Param        rideId   query string true "Ride ID"
// @Success      200 {object} map[string]interface{} "Ride status for this driver"
// @Router       /api/rides/check-ride-status [get]

// AcceptFareProposal godoc
// @Summary      Rider accepts a driver's proposal
// @Description  Assigns the driver exactly once and returns the tracking session. Pushes ride-accepted to the winning driver.
// @Tags         rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AcceptProposalRequest true "Proposal to accept"
// @Success      200 {object} map[string]interface{} "Ride session"
// @Failure      409 {object} map[string]interface{} "Ride already matched"
// @Router       /api/rides/accept-fare-proposal [post]

// ListRentals godoc
// @Summary      List all vehicle rental listings
// @Tags         rent
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]interface{} "Rental listings"
// @Router       /api/rent [get]

// CreateRental godoc
// @Summary      Create a vehicle rental listing
// @Tags         rent
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RentalRequest true "Listing details"
// @Success      201 {object} map[string]interface{} "Created listing"
// @Router       /api/rent [post]

// SubmitVerification godoc
// @Summary      Submit student verification documents
// @Tags         verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.VerificationRequest true "Document URL"
// @Success      202 {object} map[string]interface{} "Accepted"
// @Router       /api/verification [post]

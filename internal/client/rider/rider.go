// Package rider drives the passenger side of matching: submit a ride request,
// collect driver fare proposals as they arrive, accept one, end up with a
// tracking session.
package rider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gocar-app/gocar/internal/client/api"
	"github.com/gocar-app/gocar/internal/client/channel"
	"github.com/gocar-app/gocar/internal/client/session"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/internal/fare"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/validator"
)

// ValidationError reports per-field problems with a ride request. Nothing is
// sent to the backend when this is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return "invalid ride request: " + strings.Join(parts, "; ")
}

// Flow is the rider's matching state machine. One active ride request at a
// time; a new request resets everything from the previous one.
type Flow struct {
	api   *api.Client
	ch    *channel.Channel
	store *session.Store
	log   logger.Logger

	// OnProposal fires for every incoming driver proposal, OnNoDrivers when
	// the backend declares the search exhausted. Set before RequestRide.
	OnProposal  func(models.FareProposal)
	OnNoDrivers func()

	mu        sync.Mutex
	rideID    string
	order     []string // proposal ids, arrival order
	proposals map[string]models.FareProposal
	subs      []*channel.Subscription
}

func NewFlow(apiClient *api.Client, ch *channel.Channel, store *session.Store, log logger.Logger) *Flow {
	return &Flow{
		api:       apiClient,
		ch:        ch,
		store:     store,
		log:       log,
		proposals: make(map[string]models.FareProposal),
	}
}

// RequestRide validates the trip, prices it, and submits it. Subscriptions for
// proposals are registered before the POST so a fast driver cannot slip a
// proposal past us.
func (f *Flow) RequestRide(ctx context.Context, pickup, dropoff models.Location, vehicle types.VehicleType, femaleDriverOnly bool) (string, error) {
	ctx = wrap.WithAction(ctx, "rider_request_ride")

	identity := f.store.Current()
	if identity == nil {
		return "", wrap.Error(ctx, types.ErrNotAuthenticated)
	}

	if err := validateTrip(pickup, dropoff, vehicle); err != nil {
		return "", err
	}

	distance := fare.DistanceKm(pickup.Latitude, pickup.Longitude, dropoff.Latitude, dropoff.Longitude)
	estimate := fare.Estimate(vehicle, distance)

	f.reset()
	f.subscribe()

	rideID, err := f.api.RequestRide(ctx, identity.Token, models.RideRequest{
		UserID:           identity.ID,
		Pickup:           pickup,
		Dropoff:          dropoff,
		VehicleType:      vehicle,
		FemaleDriverOnly: femaleDriverOnly,
		DistanceKm:       distance,
		Fare:             estimate,
	})
	if err != nil {
		f.reset()
		return "", err
	}

	f.mu.Lock()
	f.rideID = rideID
	f.mu.Unlock()

	f.log.Info(wrap.WithRideID(ctx, rideID), "ride request submitted",
		"distanceKm", distance, "fare", estimate)
	return rideID, nil
}

func validateTrip(pickup, dropoff models.Location, vehicle types.VehicleType) error {
	v := validator.New()

	v.Check(pickup.Latitude >= -90 && pickup.Latitude <= 90, "pickup.latitude", "must be between -90 and 90")
	v.Check(pickup.Longitude >= -180 && pickup.Longitude <= 180, "pickup.longitude", "must be between -180 and 180")
	v.Check(dropoff.Latitude >= -90 && dropoff.Latitude <= 90, "dropoff.latitude", "must be between -90 and 90")
	v.Check(dropoff.Longitude >= -180 && dropoff.Longitude <= 180, "dropoff.longitude", "must be between -180 and 180")
	v.Check(pickup != dropoff, "dropoff", "must differ from pickup")
	v.Check(validator.PermittedValue(vehicle, types.VehicleBike, types.VehicleCar), "vehicleType", "must be bike or car")

	if !v.Valid() {
		return &ValidationError{Fields: v.Errors}
	}
	return nil
}

func (f *Flow) subscribe() {
	proposalSub := f.ch.Subscribe(models.EventFareProposal, func(payload any) {
		p, ok := payload.(*models.FareProposal)
		if !ok {
			return
		}
		f.addProposal(*p)
	})

	noDriversSub := f.ch.Subscribe(models.EventNoDriversAvailable, func(payload any) {
		f.log.Info(context.Background(), "no drivers available, abandoning request")
		f.reset()
		if f.OnNoDrivers != nil {
			f.OnNoDrivers()
		}
	})

	f.mu.Lock()
	f.subs = append(f.subs, proposalSub, noDriversSub)
	f.mu.Unlock()
}

func (f *Flow) addProposal(p models.FareProposal) {
	f.mu.Lock()
	if f.rideID != "" && p.RideID != f.rideID {
		// A straggler from an earlier request.
		f.mu.Unlock()
		return
	}
	if _, seen := f.proposals[p.ProposalID]; !seen {
		f.order = append(f.order, p.ProposalID)
	}
	f.proposals[p.ProposalID] = p
	f.mu.Unlock()

	if f.OnProposal != nil {
		f.OnProposal(p)
	}
}

// Proposals returns the pending proposals in arrival order.
func (f *Flow) Proposals() []models.FareProposal {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.FareProposal, 0, len(f.order))
	for _, id := range f.order {
		if p, ok := f.proposals[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Accept commits to one proposal. Every other pending proposal for the ride
// dies with this call, and the resulting session is persisted so a restart
// lands back in tracking.
func (f *Flow) Accept(ctx context.Context, proposalID string) (*models.RideSession, error) {
	ctx = wrap.WithAction(ctx, "rider_accept_proposal")

	identity := f.store.Current()
	if identity == nil {
		return nil, wrap.Error(ctx, types.ErrNotAuthenticated)
	}

	f.mu.Lock()
	p, ok := f.proposals[proposalID]
	f.mu.Unlock()
	if !ok {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %s", types.ErrProposalNotFound, proposalID))
	}

	sess, err := f.api.AcceptFareProposal(ctx, identity.Token, identity.ID, p)
	if err != nil {
		return nil, err
	}

	f.reset()

	if err := f.store.SetLastRide(ctx, sess); err != nil {
		// The ride is matched either way; losing persistence only costs the
		// restart recovery.
		f.log.Warn(ctx, "persisting ride session failed", "error", err.Error())
	}

	return sess, nil
}

// Reject discards one proposal locally. The driver is not notified; their
// proposal simply never wins.
func (f *Flow) Reject(proposalID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.proposals, proposalID)
}

// Abandon cancels the current request client-side and drops all state.
func (f *Flow) Abandon() {
	f.reset()
}

func (f *Flow) reset() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.rideID = ""
	f.order = nil
	f.proposals = make(map[string]models.FareProposal)
	f.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}

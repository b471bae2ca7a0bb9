// Package driver runs the driver side of matching: receive ride offers,
// propose a price on eligible ones, and detect acceptance. Acceptance arrives
// two ways at once, a pushed ride-accepted event and a status poll, and the
// flow guarantees the transition happens exactly once no matter which lands
// first.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocar-app/gocar/internal/client/api"
	"github.com/gocar-app/gocar/internal/client/channel"
	"github.com/gocar-app/gocar/internal/client/session"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

const (
	// statusPollInterval matches the mobile app's acceptance poll.
	statusPollInterval = 3 * time.Second
	// watchTimeout bounds how long a proposal waits for a decision.
	watchTimeout = 2 * time.Minute
)

// Flow is the driver's dispatch state machine.
type Flow struct {
	api   *api.Client
	ch    *channel.Channel
	store *session.Store
	log   logger.Logger

	// OnOffer fires for each incoming ride offer. OnAccepted fires exactly
	// once per ride when the rider takes this driver's proposal. Set before
	// Start.
	OnOffer    func(models.RideOffer)
	OnAccepted func(*models.RideSession)

	mu       sync.Mutex
	offers   map[string]models.RideOffer // keyed by ride id
	order    []string
	proposed map[string]float64 // ride id -> fare this driver proposed
	accepted map[string]bool    // one-shot guard per ride id
	watches  map[string]context.CancelFunc
	subs     []*channel.Subscription
}

func NewFlow(apiClient *api.Client, ch *channel.Channel, store *session.Store, log logger.Logger) *Flow {
	return &Flow{
		api:      apiClient,
		ch:       ch,
		store:    store,
		log:      log,
		offers:   make(map[string]models.RideOffer),
		proposed: make(map[string]float64),
		accepted: make(map[string]bool),
		watches:  make(map[string]context.CancelFunc),
	}
}

// Start subscribes to dispatch events. The channel must already be connected;
// its join announcement is what makes the backend route offers here.
func (f *Flow) Start() {
	offerSub := f.ch.Subscribe(models.EventRideRequest, func(payload any) {
		offer, ok := payload.(*models.RideOffer)
		if !ok {
			return
		}
		f.addOffer(*offer)
	})

	acceptedSub := f.ch.Subscribe(models.EventRideAccepted, func(payload any) {
		acc, ok := payload.(*models.RideAccepted)
		if !ok {
			return
		}
		sess := models.RideSession(*acc)
		f.transition(context.Background(), &sess)
	})

	f.mu.Lock()
	f.subs = append(f.subs, offerSub, acceptedSub)
	f.mu.Unlock()
}

// Close cancels subscriptions and every pending acceptance watch.
func (f *Flow) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	watches := f.watches
	f.watches = make(map[string]context.CancelFunc)
	f.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
	for _, cancel := range watches {
		cancel()
	}
}

func (f *Flow) addOffer(offer models.RideOffer) {
	f.mu.Lock()
	if _, seen := f.offers[offer.RideID]; !seen {
		f.order = append(f.order, offer.RideID)
	}
	f.offers[offer.RideID] = offer
	f.mu.Unlock()

	if f.OnOffer != nil {
		f.OnOffer(offer)
	}
}

// Offers returns pending offers in arrival order.
func (f *Flow) Offers() []models.RideOffer {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.RideOffer, 0, len(f.order))
	for _, id := range f.order {
		if o, ok := f.offers[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Propose submits this driver's price for an offer and starts watching for
// the rider's decision. A successful bid removes the offer from the pending
// list. Offers restricted to female drivers are refused client-side for
// anyone else, same as the greyed-out button in the app.
func (f *Flow) Propose(ctx context.Context, rideID string, fare float64) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, rideID), "driver_propose_fare")

	identity := f.store.Current()
	if identity == nil {
		return wrap.Error(ctx, types.ErrNotAuthenticated)
	}

	f.mu.Lock()
	offer, ok := f.offers[rideID]
	f.mu.Unlock()
	if !ok {
		return wrap.Error(ctx, fmt.Errorf("%w: %s", types.ErrRideNotFound, rideID))
	}
	if !offer.Proposable(identity.Gender) {
		return wrap.Error(ctx, types.ErrDriverNotEligible)
	}

	proposalID, err := f.api.ProposeFare(ctx, identity.Token, rideID, identity.ID, fare)
	if err != nil {
		return err
	}

	f.mu.Lock()
	delete(f.offers, rideID)
	f.proposed[rideID] = fare
	f.mu.Unlock()

	f.log.Info(ctx, "fare proposed", "proposalId", proposalID, "fare", fare)
	f.watchAcceptance(identity, offer, fare)
	return nil
}

// watchAcceptance polls the ride status until the rider decides. The pushed
// ride-accepted event usually wins; the poll is the safety net for a missed
// push.
func (f *Flow) watchAcceptance(identity *models.Identity, offer models.RideOffer, fare float64) {
	ctx, cancel := context.WithTimeout(context.Background(), watchTimeout)
	ctx = wrap.WithAction(wrap.WithRideID(ctx, offer.RideID), "driver_watch_acceptance")

	f.mu.Lock()
	if old, ok := f.watches[offer.RideID]; ok {
		old()
	}
	f.watches[offer.RideID] = cancel
	f.mu.Unlock()

	go func() {
		defer cancel()
		ticker := time.NewTicker(statusPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			status, err := f.api.CheckRideStatus(ctx, identity.Token, identity.ID, offer.RideID)
			if err != nil {
				f.log.Warn(ctx, "status poll failed", "error", err.Error())
				continue
			}

			switch status {
			case types.RideStatusInProgress:
				// The status poll carries no session payload; the room name is
				// the ride id, the rest comes from the offer and the proposal.
				f.transition(ctx, &models.RideSession{
					RideRoom: offer.RideID,
					RideID:   offer.RideID,
					PickupLocation: models.LatLng{
						Lat: offer.PickupLocation.Latitude,
						Lng: offer.PickupLocation.Longitude,
					},
					DropoffLocation: models.LatLng{
						Lat: offer.DropoffLocation.Latitude,
						Lng: offer.DropoffLocation.Longitude,
					},
					UserName:    offer.UserName,
					UserPhone:   offer.UserPhone,
					DriverName:  identity.Name,
					DriverPhone: identity.Phone,
					Fare:        fare,
				})
				return
			case types.RideStatusCancelled, types.RideStatusCompleted:
				// Lost to another driver, or the rider walked away.
				f.dropOffer(offer.RideID)
				return
			}
		}
	}()
}

// transition fires the acceptance exactly once per ride, whichever of the push
// and the poll gets here first.
func (f *Flow) transition(ctx context.Context, sess *models.RideSession) {
	f.mu.Lock()
	if f.accepted[sess.RideID] {
		f.mu.Unlock()
		return
	}
	if _, proposedOnIt := f.proposed[sess.RideID]; !proposedOnIt {
		// An acceptance we never bid on is not ours.
		f.mu.Unlock()
		return
	}
	f.accepted[sess.RideID] = true
	if cancel, ok := f.watches[sess.RideID]; ok {
		delete(f.watches, sess.RideID)
		defer cancel()
	}
	f.mu.Unlock()

	f.dropOffer(sess.RideID)

	ctx = wrap.WithAction(wrap.WithRideID(ctx, sess.RideID), "driver_ride_accepted")
	if err := f.store.SetLastRide(ctx, sess); err != nil {
		f.log.Warn(ctx, "persisting ride session failed", "error", err.Error())
	}
	f.log.Info(ctx, "proposal accepted", "rideRoom", sess.RideRoom, "fare", sess.Fare)

	if f.OnAccepted != nil {
		f.OnAccepted(sess)
	}
}

func (f *Flow) dropOffer(rideID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.offers, rideID)
	delete(f.proposed, rideID)
}

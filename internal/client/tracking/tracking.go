// Package tracking runs the live phase of a ride: both parties sit in the
// ride room, the driver streams positions, and start/stop/cancel events move
// the ride to its end. A ride ends exactly once; cancellation is terminal
// from any state, even before the ride started.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/gocar-app/gocar/internal/client/channel"
	"github.com/gocar-app/gocar/internal/client/session"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/internal/fare"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
	"github.com/gocar-app/gocar/pkg/metrics"
)

const (
	// positionInterval is how often a driver shares their location.
	positionInterval = 2 * time.Second
	// positionStaleAfter is how old the last sample may be before the rider's
	// map should stop trusting it.
	positionStaleAfter = time.Minute
	// positionMinMoveKm suppresses samples within ~1 meter of the last one
	// shared; a parked car does not spam the room.
	positionMinMoveKm = 0.001
)

// Outcome is how a ride ended.
type Outcome struct {
	Status      types.RideStatus   // completed or cancelled
	Reason      types.CancelReason // set when cancelled
	DurationMin float64            // set when completed
}

// Tracker is one participant's view of an active ride.
type Tracker struct {
	ch    *channel.Channel
	store *session.Store
	log   logger.Logger
	sess  *models.RideSession
	role  types.Role

	// Callbacks run on the channel's reader goroutine. Set before Join.
	OnLocation func(models.LocationSample)
	OnStatus   func(string)
	OnStarted  func(startTime string)
	OnEnd      func(Outcome)

	mu      sync.Mutex
	subs    []*channel.Subscription
	ended   bool
	last    models.LocationSample
	lastAt  time.Time
	hasLast bool
	stopPub context.CancelFunc
}

func NewTracker(ch *channel.Channel, store *session.Store, sess *models.RideSession, role types.Role, log logger.Logger) *Tracker {
	return &Tracker{
		ch:    ch,
		store: store,
		log:   log,
		sess:  sess,
		role:  role,
	}
}

// Join enters the ride room and subscribes to everything the room pushes.
func (t *Tracker) Join(ctx context.Context) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, t.sess.RideID), "tracking_join")

	identity := t.store.Current()
	if identity == nil {
		return wrap.Error(ctx, types.ErrNotAuthenticated)
	}

	t.subscribe()

	err := t.ch.Emit(ctx, models.EventJoinRideRoom, models.JoinRideRoom{
		RideID:   t.sess.RideID,
		UserID:   identity.ID,
		UserType: types.UserTypeFor(t.role),
	})
	if err != nil {
		t.detach()
		return err
	}

	t.log.Info(ctx, "joined ride room", "rideRoom", t.sess.RideRoom, "role", t.role)
	return nil
}

// Leave exits the room without ending the ride, cancelling every subscription
// this tracker holds. Used when a screen unmounts mid-ride; the ride itself
// keeps going.
func (t *Tracker) Leave(ctx context.Context) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, t.sess.RideID), "tracking_leave")

	identity := t.store.Current()
	if identity == nil {
		return wrap.Error(ctx, types.ErrNotAuthenticated)
	}

	t.detach()

	return t.ch.Emit(ctx, models.EventLeaveRideRoom, models.LeaveRideRoom{
		RideID: t.sess.RideID,
		UserID: identity.ID,
	})
}

func (t *Tracker) subscribe() {
	subs := []*channel.Subscription{
		t.ch.Subscribe(models.EventDriverLocationUpdate, func(payload any) {
			upd, ok := payload.(*models.DriverLocationUpdate)
			if !ok || t.isEnded() {
				return
			}
			sample := models.LocationSample{Latitude: upd.Latitude, Longitude: upd.Longitude}

			// Latest sample replaces the previous one; there is no history.
			t.mu.Lock()
			t.last = sample
			t.lastAt = time.Now()
			t.hasLast = true
			t.mu.Unlock()

			if t.OnLocation != nil {
				t.OnLocation(sample)
			}
		}),
		t.ch.Subscribe(models.EventRideStatusUpdate, func(payload any) {
			upd, ok := payload.(*models.RideStatusUpdate)
			if !ok || t.isEnded() {
				return
			}
			if t.OnStatus != nil {
				t.OnStatus(upd.Status)
			}
		}),
		t.ch.Subscribe(models.EventRideStarted, func(payload any) {
			started, ok := payload.(*models.RideStarted)
			if !ok || t.isEnded() {
				return
			}
			if t.OnStarted != nil {
				t.OnStarted(started.StartTime)
			}
		}),
		t.ch.Subscribe(models.EventRideStopped, func(payload any) {
			stopped, ok := payload.(*models.RideStopped)
			if !ok {
				return
			}
			t.end(Outcome{Status: types.RideStatusCompleted, DurationMin: stopped.DurationMin})
		}),
		t.ch.Subscribe(models.EventRideCancelled, func(payload any) {
			cancelled, ok := payload.(*models.RideCancelled)
			if !ok {
				return
			}
			t.end(Outcome{Status: types.RideStatusCancelled, Reason: cancelled.Reason})
		}),
	}

	t.mu.Lock()
	t.subs = append(t.subs, subs...)
	t.mu.Unlock()
}

// StartRide marks the pickup moment. Driver only.
func (t *Tracker) StartRide(ctx context.Context) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, t.sess.RideID), "tracking_start_ride")

	identity := t.store.Current()
	if identity == nil {
		return wrap.Error(ctx, types.ErrNotAuthenticated)
	}

	return t.ch.Emit(ctx, models.EventStartRide, models.StartRide{
		RideID:    t.sess.RideID,
		UserID:    identity.ID,
		StartTime: time.Now().UTC().Format(time.RFC3339),
	})
}

// StopRide marks the dropoff. The completion itself lands as the room's
// ride-stopped broadcast, which is what ends this tracker too.
func (t *Tracker) StopRide(ctx context.Context) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, t.sess.RideID), "tracking_stop_ride")

	identity := t.store.Current()
	if identity == nil {
		return wrap.Error(ctx, types.ErrNotAuthenticated)
	}

	return t.ch.Emit(ctx, models.EventStopRide, models.StopRide{
		RideID:  t.sess.RideID,
		UserID:  identity.ID,
		EndTime: time.Now().UTC().Format(time.RFC3339),
	})
}

// Cancel abandons the ride. Either side may call it at any point before
// completion; the reason records who walked away.
func (t *Tracker) Cancel(ctx context.Context) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, t.sess.RideID), "tracking_cancel_ride")

	identity := t.store.Current()
	if identity == nil {
		return wrap.Error(ctx, types.ErrNotAuthenticated)
	}

	return t.ch.Emit(ctx, models.EventCancelRide, models.CancelRide{
		RideID: t.sess.RideID,
		UserID: identity.ID,
		Reason: types.CancelReasonFor(t.role),
	})
}

// StartPositionUpdates begins streaming this driver's position into the room
// on a fixed cadence until the ride ends or stop is called. sample is polled
// for the current position; only the latest sample is ever sent, and samples
// that have not moved past the threshold are skipped.
func (t *Tracker) StartPositionUpdates(ctx context.Context, sample func() models.LocationSample) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	ctx = wrap.WithAction(wrap.WithRideID(ctx, t.sess.RideID), "tracking_share_location")

	t.mu.Lock()
	if t.stopPub != nil {
		t.stopPub()
	}
	t.stopPub = cancel
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(positionInterval)
		defer ticker.Stop()

		var sent models.LocationSample
		var hasSent bool

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if t.isEnded() {
				return
			}

			pos := sample()
			if hasSent && fare.DistanceKm(sent.Latitude, sent.Longitude, pos.Latitude, pos.Longitude) < positionMinMoveKm {
				continue
			}
			err := t.ch.Emit(ctx, models.EventShareDriverLocation, models.ShareDriverLocation{
				RideRoom:  t.sess.RideRoom,
				Latitude:  pos.Latitude,
				Longitude: pos.Longitude,
			})
			if err != nil {
				t.log.Warn(ctx, "sharing location failed", "error", err.Error())
				continue
			}
			sent, hasSent = pos, true
		}
	}()

	return cancel
}

// LastPosition returns the most recent driver sample and whether it is still
// fresh enough to display.
func (t *Tracker) LastPosition() (models.LocationSample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasLast {
		return models.LocationSample{}, false
	}
	return t.last, time.Since(t.lastAt) < positionStaleAfter
}

// Ended reports whether the ride reached a terminal state.
func (t *Tracker) Ended() bool { return t.isEnded() }

func (t *Tracker) isEnded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

// end performs the single terminal transition: detach from the room, clear
// the persisted session, report the outcome.
func (t *Tracker) end(outcome Outcome) {
	t.mu.Lock()
	if t.ended {
		t.mu.Unlock()
		return
	}
	t.ended = true
	if t.stopPub != nil {
		t.stopPub()
		t.stopPub = nil
	}
	t.mu.Unlock()

	t.detach()

	ctx := wrap.WithAction(wrap.WithRideID(context.Background(), t.sess.RideID), "tracking_end")
	if err := t.store.ClearLastRide(ctx); err != nil {
		t.log.Warn(ctx, "clearing ride session failed", "error", err.Error())
	}

	metrics.RidesFinishedTotal.WithLabelValues(string(outcome.Status)).Inc()
	t.log.Info(ctx, "ride ended", "status", outcome.Status, "reason", outcome.Reason)

	if t.OnEnd != nil {
		t.OnEnd(outcome)
	}
}

func (t *Tracker) detach() {
	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}

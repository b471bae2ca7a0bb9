package sim

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gocar-app/gocar/config"
	"github.com/gocar-app/gocar/internal/client/api"
	"github.com/gocar-app/gocar/internal/client/channel"
	"github.com/gocar-app/gocar/internal/client/driver"
	"github.com/gocar-app/gocar/internal/client/session"
	"github.com/gocar-app/gocar/internal/client/tracking"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

const (
	// How long the simulated driver keeps the ride going before stopping it.
	rideDuration = 30 * time.Second
	// Markup over the rider's estimate when bidding.
	fareMarkup = 1.1
)

// Driver waits for ride offers, bids on every offer it may answer, and when a
// bid wins drives the route: join the room, start the ride, stream positions,
// stop the ride.
type Driver struct {
	cfg config.Config
	log logger.Logger
}

func NewDriver(cfg config.Config, log logger.Logger) *Driver {
	return &Driver{
		cfg: cfg,
		log: log,
	}
}

func (s *Driver) Start(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "driver_sim")

	apiClient := api.New(s.cfg.Client.BaseURL, nil, s.log)
	store := session.NewStore(filepath.Join(s.cfg.Client.StateDir, "driver"), s.log)

	identity, err := store.Load(ctx)
	if err != nil {
		identity, err = s.signup(ctx, apiClient)
		if err != nil {
			return fmt.Errorf("driver signup: %w", err)
		}
		if err := store.SetIdentity(ctx, identity); err != nil {
			return fmt.Errorf("persist identity: %w", err)
		}
	}
	ctx = wrap.WithUserID(ctx, identity.ID)
	s.log.Info(ctx, "driver ready", "name", identity.Name, "vehicle", identity.VehicleInfo)

	ch := channel.New(channel.Config{
		URL:           s.cfg.Client.SocketURL,
		Role:          types.RoleDriver,
		ParticipantID: identity.ID,
	}, s.log)
	if err := ch.Connect(ctx); err != nil {
		return fmt.Errorf("connect channel: %w", err)
	}
	defer ch.Close()

	flow := driver.NewFlow(apiClient, ch, store, s.log)

	accepted := make(chan *models.RideSession, 4)
	flow.OnOffer = func(offer models.RideOffer) {
		fare := float64(offer.Fare) * fareMarkup
		s.log.Info(wrap.WithRideID(ctx, offer.RideID), "bidding on offer",
			"pickup", offer.PickupLocation.Address,
			"fare", fare,
		)
		if err := flow.Propose(ctx, offer.RideID, fare); err != nil {
			s.log.Warn(wrap.WithRideID(ctx, offer.RideID), "proposal refused", "error", err)
		}
	}
	flow.OnAccepted = func(sess *models.RideSession) {
		select {
		case accepted <- sess:
		default:
		}
	}
	flow.Start()
	defer flow.Close()

	s.log.Info(ctx, "driver online, waiting for ride offers")

	for {
		select {
		case sess := <-accepted:
			if err := s.drive(wrap.WithRideID(ctx, sess.RideID), ch, store, sess); err != nil {
				s.log.Error(wrap.ErrorCtx(ctx, err), "ride failed", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drive runs the tracking phase of one accepted ride.
func (s *Driver) drive(ctx context.Context, ch *channel.Channel, store *session.Store, sess *models.RideSession) error {
	tracker := tracking.NewTracker(ch, store, sess, types.RoleDriver, s.log)

	done := make(chan tracking.Outcome, 1)
	tracker.OnEnd = func(o tracking.Outcome) {
		select {
		case done <- o:
		default:
		}
	}

	if err := tracker.Join(ctx); err != nil {
		return fmt.Errorf("join ride room: %w", err)
	}
	if err := tracker.StartRide(ctx); err != nil {
		return fmt.Errorf("start ride: %w", err)
	}
	s.log.Info(ctx, "ride started", "rider", sess.UserName, "fare", sess.Fare)

	position := models.LocationSample{
		Latitude:  sess.PickupLocation.Lat,
		Longitude: sess.PickupLocation.Lng,
	}
	stop := tracker.StartPositionUpdates(ctx, func() models.LocationSample {
		position = driveStep(position, models.Location{
			Latitude:  sess.DropoffLocation.Lat,
			Longitude: sess.DropoffLocation.Lng,
		}, 0.1)
		return position
	})
	defer stop()

	select {
	case <-time.After(rideDuration):
		stop()
		if err := tracker.StopRide(ctx); err != nil {
			return fmt.Errorf("stop ride: %w", err)
		}
	case outcome := <-done:
		// Rider cancelled before we got there.
		s.log.Info(ctx, "ride ended early", "status", outcome.Status, "reason", outcome.Reason)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case outcome := <-done:
		s.log.Info(ctx, "ride finished",
			"status", outcome.Status,
			"durationMin", outcome.DurationMin,
		)
	case <-time.After(5 * time.Second):
		s.log.Warn(ctx, "no ride-stopped confirmation received")
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (s *Driver) signup(ctx context.Context, apiClient *api.Client) (*models.Identity, error) {
	return apiClient.RegisterDriver(ctx, api.RegisterDriverParams{
		Name:         "Sim Driver",
		Email:        fmt.Sprintf("driver%s@gocar.sim", freshPhone()[1:]),
		Phone:        freshPhone(),
		Password:     "sim-password",
		Gender:       types.GenderMale,
		VehicleInfo:  "Toyota Corolla 2018",
		LicensePlate: "ABC-1234",
	})
}

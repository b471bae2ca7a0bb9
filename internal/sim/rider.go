package sim

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gocar-app/gocar/config"
	"github.com/gocar-app/gocar/internal/client/api"
	"github.com/gocar-app/gocar/internal/client/channel"
	"github.com/gocar-app/gocar/internal/client/rider"
	"github.com/gocar-app/gocar/internal/client/session"
	"github.com/gocar-app/gocar/internal/client/tracking"
	"github.com/gocar-app/gocar/internal/domain/models"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

const proposalWait = 45 * time.Second

// Rider requests a ride, accepts the first proposal that arrives, and then
// follows the tracking room until the ride ends.
type Rider struct {
	cfg config.Config
	log logger.Logger
}

func NewRider(cfg config.Config, log logger.Logger) *Rider {
	return &Rider{
		cfg: cfg,
		log: log,
	}
}

func (s *Rider) Start(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "rider_sim")

	apiClient := api.New(s.cfg.Client.BaseURL, nil, s.log)
	store := session.NewStore(filepath.Join(s.cfg.Client.StateDir, "rider"), s.log)

	identity, err := store.Load(ctx)
	if err != nil {
		identity, err = s.signup(ctx, apiClient)
		if err != nil {
			return fmt.Errorf("rider signup: %w", err)
		}
		if err := store.SetIdentity(ctx, identity); err != nil {
			return fmt.Errorf("persist identity: %w", err)
		}
	}
	ctx = wrap.WithUserID(ctx, identity.ID)
	s.log.Info(ctx, "rider ready", "name", identity.Name, "phone", identity.Phone)

	ch := channel.New(channel.Config{
		URL:           s.cfg.Client.SocketURL,
		Role:          types.RoleUser,
		ParticipantID: identity.ID,
	}, s.log)
	if err := ch.Connect(ctx); err != nil {
		return fmt.Errorf("connect channel: %w", err)
	}
	defer ch.Close()

	flow := rider.NewFlow(apiClient, ch, store, s.log)

	proposals := make(chan models.FareProposal, 16)
	noDrivers := make(chan struct{}, 1)
	flow.OnProposal = func(p models.FareProposal) {
		select {
		case proposals <- p:
		default:
		}
	}
	flow.OnNoDrivers = func() {
		select {
		case noDrivers <- struct{}{}:
		default:
		}
	}

	rideID, err := flow.RequestRide(ctx, saddar, gulshan, types.VehicleCar, false)
	if err != nil {
		return fmt.Errorf("request ride: %w", err)
	}
	ctx = wrap.WithRideID(ctx, rideID)
	s.log.Info(ctx, "ride requested, waiting for proposals")

	var proposal models.FareProposal
	select {
	case proposal = <-proposals:
	case <-noDrivers:
		return errors.New("no drivers available")
	case <-time.After(proposalWait):
		flow.Abandon()
		return errors.New("no proposals arrived in time")
	case <-ctx.Done():
		flow.Abandon()
		return ctx.Err()
	}
	s.log.Info(ctx, "accepting proposal",
		"driver", proposal.DriverName,
		"fare", proposal.ProposedFare,
	)

	sess, err := flow.Accept(ctx, proposal.ProposalID)
	if err != nil {
		return fmt.Errorf("accept proposal: %w", err)
	}

	return s.track(ctx, ch, store, sess)
}

// track joins the ride room and rides along until the driver finishes or
// someone cancels.
func (s *Rider) track(ctx context.Context, ch *channel.Channel, store *session.Store, sess *models.RideSession) error {
	tracker := tracking.NewTracker(ch, store, sess, types.RoleUser, s.log)

	done := make(chan tracking.Outcome, 1)
	tracker.OnEnd = func(o tracking.Outcome) {
		select {
		case done <- o:
		default:
		}
	}
	tracker.OnStarted = func(startTime string) {
		s.log.Info(ctx, "ride started", "startTime", startTime)
	}
	tracker.OnLocation = func(sample models.LocationSample) {
		s.log.Debug(ctx, "driver position",
			"latitude", sample.Latitude,
			"longitude", sample.Longitude,
		)
	}

	if err := tracker.Join(ctx); err != nil {
		return fmt.Errorf("join ride room: %w", err)
	}

	select {
	case outcome := <-done:
		s.log.Info(ctx, "ride finished",
			"status", outcome.Status,
			"reason", outcome.Reason,
			"durationMin", outcome.DurationMin,
		)
		return nil
	case <-ctx.Done():
		leaveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tracker.Leave(leaveCtx)
		return ctx.Err()
	}
}

func (s *Rider) signup(ctx context.Context, apiClient *api.Client) (*models.Identity, error) {
	return apiClient.RegisterUser(ctx, api.RegisterUserParams{
		Name:     "Sim Rider",
		Phone:    freshPhone(),
		Password: "sim-password",
		Gender:   types.GenderMale,
	})
}

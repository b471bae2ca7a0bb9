package modes

import (
	"context"
	"fmt"

	"github.com/gocar-app/gocar/config"
	"github.com/gocar-app/gocar/internal/backend/events"
	"github.com/gocar-app/gocar/internal/backend/gateway"
	"github.com/gocar-app/gocar/internal/backend/server"
	"github.com/gocar-app/gocar/internal/backend/service"
	"github.com/gocar-app/gocar/internal/backend/store"
	"github.com/gocar-app/gocar/internal/backend/token"
	"github.com/gocar-app/gocar/pkg/logger"
	"github.com/gocar-app/gocar/pkg/postgres"
	"github.com/gocar-app/gocar/pkg/rabbit"
)

// Backend is the single-process ride-hailing server: HTTP API, WebSocket
// gateway, and the matching services behind them.
type Backend struct {
	cfg config.Config
	log logger.Logger
}

func NewBackend(ctx context.Context, cfg config.Config, log logger.Logger) (*Backend, error) {
	return &Backend{
		cfg: cfg,
		log: log,
	}, nil
}

func (s *Backend) Start(ctx context.Context) error {
	// Storage. The in-memory store is the default so the whole system can be
	// run with nothing but this binary.
	var st store.Store = store.NewMemory()
	if s.cfg.Database.Enabled {
		db, err := postgres.New(ctx, s.cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer db.Close()
		st = store.NewPostgres(db.Pool)
		s.log.Info(ctx, "using postgres store", "host", s.cfg.Database.Host)
	}

	// Ride lifecycle events are best-effort; without a broker the publisher
	// is a no-op.
	var pub *events.Publisher
	if s.cfg.RabbitMQ.Enabled {
		mq, err := rabbit.New(ctx, s.cfg.RabbitMQ.GetDSN(), s.log)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		defer mq.Close(ctx)
		pub = events.NewPublisher(mq, s.log)
		if err := pub.Setup(ctx); err != nil {
			return fmt.Errorf("failed to declare exchange: %w", err)
		}
	} else {
		pub = events.NewPublisher(nil, s.log)
	}

	tokens := token.NewService(s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenTTL)
	gw := gateway.New(st, pub, s.log)

	authService := service.NewAuth(st, tokens, s.log)
	rideService := service.NewRides(st, gw, pub, s.log)
	rentService := service.NewRent(st, s.log)
	verificationService := service.NewVerification(st, s.log)

	api, err := server.New(
		s.cfg,
		authService,
		rideService,
		rentService,
		verificationService,
		authService,
		gw,
		s.log,
	)
	if err != nil {
		return fmt.Errorf("failed to build http server: %w", err)
	}

	errCh := make(chan error, 1)
	api.Run(ctx, errCh)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return api.Stop(context.Background())
}

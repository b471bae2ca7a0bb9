package modes

import (
	"context"

	"github.com/gocar-app/gocar/config"
	"github.com/gocar-app/gocar/internal/sim"
	"github.com/gocar-app/gocar/pkg/logger"
)

// RiderSim runs a scripted rider client against a backend.
type RiderSim struct {
	rider *sim.Rider
}

func NewRiderSim(ctx context.Context, cfg config.Config, log logger.Logger) (*RiderSim, error) {
	return &RiderSim{
		rider: sim.NewRider(cfg, log),
	}, nil
}

func (s *RiderSim) Start(ctx context.Context) error {
	return s.rider.Start(ctx)
}

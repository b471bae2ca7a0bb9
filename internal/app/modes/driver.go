package modes

import (
	"context"

	"github.com/gocar-app/gocar/config"
	"github.com/gocar-app/gocar/internal/sim"
	"github.com/gocar-app/gocar/pkg/logger"
)

// DriverSim runs a scripted driver client against a backend.
type DriverSim struct {
	driver *sim.Driver
}

func NewDriverSim(ctx context.Context, cfg config.Config, log logger.Logger) (*DriverSim, error) {
	return &DriverSim{
		driver: sim.NewDriver(cfg, log),
	}, nil
}

func (s *DriverSim) Start(ctx context.Context) error {
	return s.driver.Start(ctx)
}

package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/gocar-app/gocar/pkg/configparser"
)

// Flags
var (
	modeFlag = flag.String("mode", "backend", "application mode: backend, rider or driver")
)

// Errors
var (
	ErrInvalidMode = errors.New("invalid mode flag")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode types.AppMode

		Server   ServerConfig
		Database DatabaseConfig
		RabbitMQ RabbitMQConfig
		Auth     AuthConfig
		Client   ClientConfig
		Log      LogConfig
	}

	ServerConfig struct {
		Host string `env:"SERVER_HOST" default:"0.0.0.0"`
		Port string `env:"SERVER_PORT" default:"3000"`
	}

	DatabaseConfig struct {
		// Enabled switches the backend from the in-memory store to Postgres.
		Enabled  bool   `env:"DATABASE_ENABLED" default:"false"`
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"gocar_user"`
		Password string `env:"DATABASE_PASSWORD" default:"gocar_pass"`
		Database string `env:"DATABASE_DATABASE" default:"gocar_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RabbitMQConfig struct {
		// Enabled switches ride event publishing on. The backend runs fine
		// without a broker; publishing is best-effort either way.
		Enabled  bool   `env:"RABBITMQ_ENABLED" default:"false"`
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	AuthConfig struct {
		AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"168h"`
		JWTSecret      string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	// ClientConfig points the rider/driver simulators at a backend.
	ClientConfig struct {
		BaseURL   string `env:"CLIENT_BASE_URL" default:"http://localhost:3000"`
		SocketURL string `env:"CLIENT_SOCKET_URL" default:"ws://localhost:3000/ws"`
		StateDir  string `env:"CLIENT_STATE_DIR" default:".gocar"`
	}

	LogConfig struct {
		Level string `env:"LOG_LEVEL" default:"info"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	switch mode := types.AppMode(*modeFlag); mode {
	case types.ModeBackend, types.ModeRiderSim, types.ModeDriverSim:
		cfg.Mode = mode
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, *modeFlag)
	}

	return nil
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocar-app/gocar/config"
	"github.com/gocar-app/gocar/internal/backend/gateway"
	"github.com/gocar-app/gocar/internal/backend/handler"
	"github.com/gocar-app/gocar/internal/backend/middleware"
	"github.com/gocar-app/gocar/pkg/logger"
	wrap "github.com/gocar-app/gocar/pkg/logger/wrapper"
)

const serverIPAddress = "%s:%s"

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware
	gw     *gateway.Gateway

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	auth         *handler.Auth
	rides        *handler.Rides
	rent         *handler.Rent
	verification *handler.Verification
	health       *handler.Health
}

func New(
	cfg config.Config,
	authService handler.AuthService,
	rideService handler.RideService,
	rentService handler.RentService,
	verificationService handler.VerificationService,
	authenticator middleware.Authenticator,
	gw *gateway.Gateway,
	log logger.Logger,
) (*API, error) {
	if authService == nil {
		return nil, errors.New("auth service is required")
	}
	if gw == nil {
		return nil, errors.New("socket gateway is required")
	}

	routes := &handlers{
		auth:         handler.NewAuth(authService, log),
		rides:        handler.NewRides(rideService, log),
		rent:         handler.NewRent(rentService, log),
		verification: handler.NewVerification(verificationService, log),
		health:       handler.NewHealth(),
	}

	api := &API{
		mux:    http.NewServeMux(),
		routes: routes,
		m:      middleware.New(authenticator, log),
		gw:     gw,
		addr:   fmt.Sprintf(serverIPAddress, cfg.Server.Host, cfg.Server.Port),
		cfg:    cfg,
		log:    log,
	}

	setupRoutes(api.mux, api.routes, api.m, api.gw)

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	return api, nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

// Handler exposes the fully wired handler chain, mainly for tests.
func (a *API) Handler() http.Handler {
	return a.withMiddleware()
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Metrics(a.m.Auth(a.mux))))
}

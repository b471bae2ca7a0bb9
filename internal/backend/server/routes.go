package server

import (
	"net/http"

	"github.com/gocar-app/gocar/internal/backend/gateway"
	"github.com/gocar-app/gocar/internal/backend/middleware"
	"github.com/gocar-app/gocar/internal/domain/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware, gw *gateway.Gateway) {
	// System Health
	mux.HandleFunc("/health", routes.health.Check)

	setupSwaggerRoutes(mux)
	setupMetricsRoute(mux)

	setupAuthRoutes(mux, routes)
	setupRideRoutes(mux, routes, m)
	setupRentRoutes(mux, routes, m)
	setupVerificationRoutes(mux, routes, m)

	// WebSocket entry point shared by riders and drivers. Participants
	// identify themselves with a join event after the upgrade.
	mux.HandleFunc("GET /ws", gw.HandleWS)
}

func setupAuthRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("POST /api/auth/register", routes.auth.RegisterUser)
	mux.HandleFunc("POST /api/auth/login", routes.auth.LoginUser)
	mux.HandleFunc("POST /api/auth/driver/register", routes.auth.RegisterDriver)
	mux.HandleFunc("POST /api/auth/driver/login", routes.auth.LoginDriver)
}

func setupRideRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /api/rides/request", m.RequireRoles(routes.rides.Request, types.RoleUser))
	mux.Handle("POST /api/rides/ride-price-proposal", m.RequireRoles(routes.rides.ProposeFare, types.RoleDriver))
	mux.Handle("GET /api/rides/check-ride-status", m.RequireRoles(routes.rides.CheckStatus, types.RoleDriver))
	mux.Handle("POST /api/rides/accept-fare-proposal", m.RequireRoles(routes.rides.AcceptProposal, types.RoleUser))
}

func setupRentRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /api/rent", m.RequireRoles(routes.rent.List, types.RoleUser, types.RoleDriver))
	mux.Handle("GET /api/rent/user/{id}", m.RequireRoles(routes.rent.ListByUser, types.RoleUser, types.RoleDriver))
	mux.Handle("POST /api/rent", m.RequireRoles(routes.rent.Create, types.RoleUser, types.RoleDriver))
	mux.Handle("PUT /api/rent/{id}", m.RequireRoles(routes.rent.Update, types.RoleUser, types.RoleDriver))
	mux.Handle("DELETE /api/rent/delete/{id}", m.RequireRoles(routes.rent.Delete, types.RoleUser, types.RoleDriver))
}

func setupVerificationRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /api/verification", m.RequireRoles(routes.verification.Submit, types.RoleUser))
}

// setupSwaggerRoutes configures the Swagger UI endpoint
func setupSwaggerRoutes(mux *http.ServeMux) {
	swaggerURL := httpSwagger.InstanceName("backend")
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}

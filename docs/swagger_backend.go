package docs

// @title           GoCar Backend API
// @version         1.0
// @description     Ride-hailing backend: rider and driver authentication, ride requests, driver fare proposals, proposal acceptance, vehicle rentals and student verification. Real-time dispatch and ride tracking run over the /ws WebSocket endpoint.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

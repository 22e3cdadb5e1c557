package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/olzhasov/ticketbot/internal/handler"    // import the handlers that implement business logic
	"github.com/olzhasov/ticketbot/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The health endpoint is used by load balancers and monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the admin login endpoint.  There is no
// self-service registration: admins are whitelisted by Telegram id in
// the configuration and share one panel password.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
}

// adminGroup builds the /v1/admin group with JWT validation and the
// admin role requirement applied; every admin route hangs off it.
func adminGroup(e *echo.Echo, jwtSecret string) *echo.Group {
	return e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("admin"),
	)
}

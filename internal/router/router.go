package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-portal/internal/handler"
)

// RegisterRoutes registers routes that need no authentication and sit
// outside /v1.  Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers the session endpoints under /v1/auth.  None of
// them require an access token: register and login create sessions,
// refresh exchanges a refresh token, and logout accepts either a refresh
// token in the body or a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)              // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // access token only
	g.POST("/logout", a.Logout)
}

// RegisterPublic registers unauthenticated read endpoints.  cache wraps
// responses that are safe to share between clients.
func RegisterPublic(e *echo.Echo, lb *handler.LeaderboardHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/leaderboard", lb.Leaderboard, cache)
}

package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-portal/internal/handler"
	"github.com/iliyamo/campus-portal/internal/middleware"
	"github.com/iliyamo/campus-portal/internal/model"
)

// RegisterAdmin registers staff endpoints under /v1/admin.  All routes
// require a valid JWT and the admin or principal role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, n *handler.NotificationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.StaffRoles()...),
		limiter,
	)

	// ---- Roster ----
	g.GET("/users", a.ListUsers)
	g.GET("/users/export", a.ExportUsers)
	g.DELETE("/users/:id", a.DeleteUser)

	// ---- Points ----
	g.POST("/users/:id/points", a.AwardPoints)

	// ---- Notifications ----
	g.POST("/notifications", n.Broadcast)
}

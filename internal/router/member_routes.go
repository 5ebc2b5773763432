package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-portal/internal/handler"
	"github.com/iliyamo/campus-portal/internal/middleware"
	"github.com/iliyamo/campus-portal/internal/model"
)

// MemberHandlers groups the handlers reachable by every signed-in role.
type MemberHandlers struct {
	Me            *handler.MeHandler
	Facilities    *handler.FacilityHandler
	Notifications *handler.NotificationHandler
}

// RegisterMember registers endpoints for any authenticated user under /v1.
// Routes require a valid JWT and a known role; limiter runs after
// authentication so buckets can be keyed per user.
func RegisterMember(e *echo.Echo, h MemberHandlers, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.AllRoles()...),
		limiter,
	)

	// ---- Profile & points ----
	g.GET("/me", h.Me.Profile)
	g.PUT("/me/profile-image", h.Me.UpdateProfileImage)
	g.GET("/me/points", h.Me.Points)
	g.POST("/me/points/redeem", h.Me.Redeem)
	g.GET("/me/bookings", h.Me.Bookings)

	// ---- Facility booking ----
	g.GET("/facilities/:id/availability", h.Facilities.Availability)
	g.POST("/facilities/:id/bookings", h.Facilities.Book)

	// ---- Notifications ----
	g.GET("/notifications", h.Notifications.List)
	g.GET("/notifications/unread-count", h.Notifications.UnreadCount)
	g.POST("/notifications/read-all", h.Notifications.MarkAllRead)
	g.POST("/notifications/:id/read", h.Notifications.MarkRead)
	g.POST("/messages", h.Notifications.SendMessage)
}

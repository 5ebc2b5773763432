package middleware

import "github.com/labstack/echo/v4"

// Context keys written by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// CurrentUserID returns the authenticated user id stored by JWTAuth.
func CurrentUserID(c echo.Context) (string, bool) {
	id, ok := c.Get(ctxUserID).(string)
	return id, ok && id != ""
}

// CurrentRole returns the role claim stored by JWTAuth.
func CurrentRole(c echo.Context) string {
	role, _ := c.Get(ctxRole).(string)
	return role
}

// subject names the caller for rate-limit and cache keys; unauthenticated
// requests share the "anon" bucket.
func subject(c echo.Context) string {
	if id, ok := CurrentUserID(c); ok {
		return id
	}
	return "anon"
}

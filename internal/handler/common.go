package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/campus-portal/internal/middleware"
	"github.com/iliyamo/campus-portal/internal/repository"
	"github.com/iliyamo/campus-portal/internal/service"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

var errNoUser = errors.New("invalid user_id in context")

// getUserID returns the authenticated user id placed by JWTAuth.
func getUserID(c echo.Context) (string, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return "", errNoUser
	}
	return id, nil
}

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// bindAndValidate binds the request into dst and runs the registered
// validator.  It writes the 400 response itself and returns false on
// failure.
func bindAndValidate(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verrs})
		}
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return true, nil
}

// respondError maps domain errors to HTTP responses.  Anything unknown is
// logged and reported as a 500 with the given fallback message.
func respondError(c echo.Context, err error, fallback string) error {
	var cd *repository.CooldownError
	switch {
	case errors.As(err, &cd):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                 "booking cooldown active",
			"cooldown_remaining_ms": cd.Remaining.Milliseconds(),
			"cooldown_until":        cd.Until,
		})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, repository.ErrInsufficientPoints):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient points"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, service.ErrInvalidRefresh):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	case errors.Is(err, service.ErrSelfDelete):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete own account"})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, errNoUser):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	log.Ctx(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg(fallback)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

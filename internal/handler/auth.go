package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-portal/internal/middleware"
	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/service"
	"github.com/iliyamo/campus-portal/internal/utils"
)

// AuthHandler serves sign-up, login and session endpoints.
type AuthHandler struct {
	Roster    *service.RosterService
	JWTSecret string
}

func NewAuthHandler(roster *service.RosterService, jwtSecret string) *AuthHandler {
	return &AuthHandler{Roster: roster, JWTSecret: jwtSecret}
}

// ----- DTOs -----

type registerReq struct {
	Name       string  `json:"name" validate:"required,max=120"`
	Email      string  `json:"email" validate:"required,email,max=190"`
	Password   string  `json:"password" validate:"required,max=72"`
	Role       string  `json:"role" validate:"omitempty,oneof=student admin principal"`
	Department *string `json:"department" validate:"omitempty,max=120"`
	Year       *string `json:"year" validate:"omitempty,max=20"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Register: create a student (or staff, when allowed) and log them in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	sess, err := h.Roster.Signup(ctx, service.SignupInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       model.Role(strings.ToLower(strings.TrimSpace(req.Role))),
		Department: req.Department,
		Year:       req.Year,
	})
	if err != nil {
		return respondError(c, err, "create user failed")
	}
	return c.JSON(http.StatusCreated, sess)
}

// Login: verify credentials and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	sess, err := h.Roster.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "login failed")
	}
	return c.JSON(http.StatusOK, sess)
}

// Refresh: validate by hash, revoke the old token, issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	sess, err := h.Roster.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, err, "refresh failed")
	}
	return c.JSON(http.StatusOK, sess)
}

// RefreshAccess: return a new access token without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	access, err := h.Roster.RefreshAccess(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, err, "issue access failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}

// Logout revokes one refresh token when the body carries it.  With only a
// valid bearer token it revokes every refresh token of that user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.Bind(&req)
	refresh := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := withTimeout(c)
	defer cancel()

	if refresh != "" {
		if err := h.Roster.Logout(ctx, refresh); err != nil {
			return respondError(c, err, "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}
	if raw := middleware.BearerToken(c); raw != "" {
		claims, err := utils.ParseAccessToken(h.JWTSecret, raw)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		if err := h.Roster.LogoutAll(ctx, claims.Subject); err != nil {
			return respondError(c, err, "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

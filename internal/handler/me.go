package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/service"
)

// MeHandler serves the current user's own profile, points and bookings.
type MeHandler struct {
	Roster  *service.RosterService
	Ledger  *service.LedgerService
	Booking *service.BookingService
}

func NewMeHandler(roster *service.RosterService, ledger *service.LedgerService, bookings *service.BookingService) *MeHandler {
	return &MeHandler{Roster: roster, Ledger: ledger, Booking: bookings}
}

type profileImageReq struct {
	ImageURL string `json:"image_url" validate:"required,max=512"`
}

type redeemReq struct {
	Item        string `json:"item" validate:"required,max=150"`
	Cost        int64  `json:"cost" validate:"gt=0"`
	Description string `json:"description" validate:"max=500"`
}

// Profile handles GET /v1/me.
func (h *MeHandler) Profile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	p, err := h.Roster.Profile(ctx, uid)
	if err != nil {
		return respondError(c, err, "load profile failed")
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateProfileImage handles PUT /v1/me/profile-image.
func (h *MeHandler) UpdateProfileImage(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	var req profileImageReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	u, err := h.Roster.UpdateProfileImage(ctx, uid, req.ImageURL)
	if err != nil {
		return respondError(c, err, "update profile image failed")
	}
	return c.JSON(http.StatusOK, u)
}

// Points handles GET /v1/me/points: balance plus full history.
func (h *MeHandler) Points(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	history, err := h.Ledger.History(ctx, uid)
	if err != nil {
		return respondError(c, err, "load points failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": model.SumDeltas(history), "history": history})
}

// Redeem handles POST /v1/me/points/redeem.
func (h *MeHandler) Redeem(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	var req redeemReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := h.Ledger.Redeem(ctx, uid, req.Cost, req.Item, req.Description)
	if err != nil {
		return respondError(c, err, "redeem failed")
	}
	return c.JSON(http.StatusCreated, res)
}

// Bookings handles GET /v1/me/bookings.
func (h *MeHandler) Bookings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	list, err := h.Booking.ListBookings(ctx, uid)
	if err != nil {
		return respondError(c, err, "list bookings failed")
	}
	return c.JSON(http.StatusOK, list)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/service"
)

// FacilityHandler exposes the booking cooldown gate.
type FacilityHandler struct {
	Bookings *service.BookingService
}

func NewFacilityHandler(bookings *service.BookingService) *FacilityHandler {
	return &FacilityHandler{Bookings: bookings}
}

type bookingReq struct {
	ResourceName string `json:"resource_name" validate:"required,max=200"`
	ResourceType string `json:"resource_type" validate:"omitempty,oneof=study_room lab library sports other"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot     string `json:"time_slot" validate:"required,max=64"`
}

// Availability handles GET /v1/facilities/:id/availability.
func (h *FacilityHandler) Availability(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	resourceID := strings.TrimSpace(c.Param("id"))
	ctx, cancel := withTimeout(c)
	defer cancel()
	a, err := h.Bookings.CanBookResource(ctx, uid, resourceID)
	if err != nil {
		return respondError(c, err, "check availability failed")
	}
	return c.JSON(http.StatusOK, a)
}

// Book handles POST /v1/facilities/:id/bookings.  A booking during an
// active cooldown answers 409 with cooldown_remaining_ms.
func (h *FacilityHandler) Book(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	var req bookingReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	b, err := h.Bookings.AddFacilityBooking(ctx, uid, service.BookingInput{
		ResourceID:   strings.TrimSpace(c.Param("id")),
		ResourceName: req.ResourceName,
		ResourceType: model.ResourceType(req.ResourceType),
		Date:         req.Date,
		TimeSlot:     req.TimeSlot,
	})
	if err != nil {
		return respondError(c, err, "booking failed")
	}
	return c.JSON(http.StatusCreated, b)
}

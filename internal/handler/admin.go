package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/report"
	"github.com/iliyamo/campus-portal/internal/service"
)

// AdminHandler serves the staff dashboard.
type AdminHandler struct {
	Roster *service.RosterService
	Ledger *service.LedgerService
}

func NewAdminHandler(roster *service.RosterService, ledger *service.LedgerService) *AdminHandler {
	return &AdminHandler{Roster: roster, Ledger: ledger}
}

type awardReq struct {
	Delta       int64  `json:"delta" validate:"ne=0"`
	Category    string `json:"category" validate:"required,oneof=event academic facility store other"`
	Activity    string `json:"activity" validate:"required,max=200"`
	Description string `json:"description" validate:"max=500"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rows, err := h.Roster.ListUsers(ctx, uid)
	if err != nil {
		return respondError(c, err, "list users failed")
	}
	return c.JSON(http.StatusOK, rows)
}

// ExportUsers handles GET /v1/admin/users/export and streams an .xlsx file.
func (h *AdminHandler) ExportUsers(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rows, err := h.Roster.ListUsers(ctx, uid)
	if err != nil {
		return respondError(c, err, "list users failed")
	}
	var buf bytes.Buffer
	if err := report.WriteRoster(&buf, rows); err != nil {
		return respondError(c, err, "export failed")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="roster.xlsx"`)
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(buf.Len()))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// DeleteUser handles DELETE /v1/admin/users/:id.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Roster.DeleteUser(ctx, uid, c.Param("id")); err != nil {
		return respondError(c, err, "delete user failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// AwardPoints handles POST /v1/admin/users/:id/points.
func (h *AdminHandler) AwardPoints(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	var req awardReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := h.Ledger.Award(ctx, uid, c.Param("id"), service.PointsInput{
		Delta:       req.Delta,
		Category:    model.Category(req.Category),
		Activity:    req.Activity,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err, "record points failed")
	}
	return c.JSON(http.StatusCreated, res)
}

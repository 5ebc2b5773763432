package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/service"
)

// NotificationHandler serves inboxes, read receipts and sending.
type NotificationHandler struct {
	Notes *service.NotificationService
}

func NewNotificationHandler(notes *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{Notes: notes}
}

type messageReq struct {
	Title      string   `json:"title" validate:"required,max=200"`
	Body       string   `json:"body" validate:"max=5000"`
	Recipients []string `json:"recipients" validate:"required,min=1,dive,required"`
}

type broadcastReq struct {
	Title            string   `json:"title" validate:"required,max=200"`
	Body             string   `json:"body" validate:"max=5000"`
	Sender           string   `json:"sender" validate:"max=120"`
	Type             string   `json:"type" validate:"omitempty,oneof=info alert success message"`
	TargetUsers      []string `json:"target_users" validate:"omitempty,dive,required"`
	TargetDepartment *string  `json:"target_department" validate:"omitempty,max=120"`
	TargetYear       *string  `json:"target_year" validate:"omitempty,max=20"`
}

// List handles GET /v1/notifications.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Notes.Inbox(ctx, uid)
	if err != nil {
		return respondError(c, err, "list notifications failed")
	}
	return c.JSON(http.StatusOK, items)
}

// UnreadCount handles GET /v1/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	n, err := h.Notes.UnreadCount(ctx, uid)
	if err != nil {
		return respondError(c, err, "count notifications failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// MarkRead handles POST /v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Notes.MarkAsRead(ctx, uid, c.Param("id")); err != nil {
		return respondError(c, err, "mark read failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles POST /v1/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	n, err := h.Notes.MarkAllAsRead(ctx, uid)
	if err != nil {
		return respondError(c, err, "mark all read failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": n})
}

// SendMessage handles POST /v1/messages: a direct message to explicit
// recipients, open to every role.
func (h *NotificationHandler) SendMessage(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	var req messageReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	n, err := h.Notes.Send(ctx, uid, service.SendInput{
		Title:       req.Title,
		Body:        req.Body,
		Type:        model.NotificationMessage,
		TargetUsers: req.Recipients,
	})
	if err != nil {
		return respondError(c, err, "send message failed")
	}
	return c.JSON(http.StatusCreated, n)
}

// Broadcast handles POST /v1/admin/notifications.
func (h *NotificationHandler) Broadcast(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err, "")
	}
	var req broadcastReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	n, err := h.Notes.Send(ctx, uid, service.SendInput{
		Title:            req.Title,
		Body:             req.Body,
		Sender:           req.Sender,
		Type:             model.NotificationType(req.Type),
		TargetUsers:      req.TargetUsers,
		TargetDepartment: req.TargetDepartment,
		TargetYear:       req.TargetYear,
	})
	if err != nil {
		return respondError(c, err, "send notification failed")
	}
	return c.JSON(http.StatusCreated, n)
}

package model

import (
	"slices"
	"time"
)

// NotificationType tags how a notification is rendered.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationAlert   NotificationType = "alert"
	NotificationSuccess NotificationType = "success"
	NotificationMessage NotificationType = "message"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationAlert, NotificationSuccess, NotificationMessage:
		return true
	}
	return false
}

// Notification is a row of the global `notifications` table together with
// its explicit recipients from `notification_targets`.  Inboxes are
// computed by filtering the global list with VisibleTo.
type Notification struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Body             string           `json:"body"`
	Sender           string           `json:"sender"`
	SenderID         string           `json:"sender_id,omitempty"`
	Type             NotificationType `json:"type"`
	TargetUsers      []string         `json:"target_users,omitempty"`
	TargetDepartment *string          `json:"target_department,omitempty"`
	TargetYear       *string          `json:"target_year,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// VisibleTo decides whether u receives n.  Targeting is first-match, not
// combinatorial: a non-empty recipient list is the only rule checked when
// present, then department, then year; with no targeting at all the
// notification is a broadcast.
func (n Notification) VisibleTo(u User) bool {
	if len(n.TargetUsers) > 0 {
		return slices.Contains(n.TargetUsers, u.ID)
	}
	if n.TargetDepartment != nil {
		return u.Department != nil && *u.Department == *n.TargetDepartment
	}
	if n.TargetYear != nil {
		return u.Year != nil && *u.Year == *n.TargetYear
	}
	return true
}

// InboxItem is a notification as seen by one recipient, with that
// recipient's own read receipt.
type InboxItem struct {
	Notification
	Read   bool       `json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}

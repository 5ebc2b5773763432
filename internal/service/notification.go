package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/queue"
	"github.com/iliyamo/campus-portal/internal/repository"
)

// NotificationService sends notifications and serves per-user inboxes.
type NotificationService struct {
	clock
	users UserStore
	notes NotificationStore
	pub   Publisher
}

func NewNotificationService(users UserStore, notes NotificationStore, pub Publisher) *NotificationService {
	return &NotificationService{clock: newClock(), users: users, notes: notes, pub: pub}
}

// SendInput is a notification to store.  Targeting fields are optional;
// with none set the notification is a broadcast.
type SendInput struct {
	Title            string
	Body             string
	Sender           string
	Type             model.NotificationType
	TargetUsers      []string
	TargetDepartment *string
	TargetYear       *string
}

// Send stores a notification from senderID.  Staff may target anyone.
// Students may only send direct messages: type message addressed to an
// explicit recipient list.
func (s *NotificationService) Send(ctx context.Context, senderID string, in SendInput) (model.Notification, error) {
	sender, err := s.users.GetByID(ctx, senderID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Notification{}, repository.ErrForbidden
	}
	if err != nil {
		return model.Notification{}, err
	}

	n := model.Notification{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(in.Title),
		Body:             strings.TrimSpace(in.Body),
		Sender:           strings.TrimSpace(in.Sender),
		SenderID:         sender.ID,
		Type:             in.Type,
		TargetUsers:      recipients(in.TargetUsers),
		TargetDepartment: optional(in.TargetDepartment),
		TargetYear:       optional(in.TargetYear),
		CreatedAt:        s.now(),
	}
	if n.Type == "" {
		n.Type = model.NotificationInfo
	}
	if n.Sender == "" {
		n.Sender = sender.Name
	}
	switch {
	case n.Title == "":
		return model.Notification{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case !n.Type.Valid():
		return model.Notification{}, fmt.Errorf("%w: unknown notification type %q", ErrInvalidInput, n.Type)
	}
	if !sender.Role.IsStaff() {
		if n.Type != model.NotificationMessage || len(n.TargetUsers) == 0 ||
			n.TargetDepartment != nil || n.TargetYear != nil {
			return model.Notification{}, repository.ErrForbidden
		}
	}
	for _, uid := range n.TargetUsers {
		if _, err := s.users.GetByID(ctx, uid); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Notification{}, fmt.Errorf("%w: unknown recipient %s", ErrInvalidInput, uid)
			}
			return model.Notification{}, err
		}
	}

	if err := s.notes.Create(ctx, n); err != nil {
		return model.Notification{}, err
	}
	log.Info().Str("notification_id", n.ID).Str("sender_id", senderID).Str("type", string(n.Type)).Int("recipients", len(n.TargetUsers)).Msg("notification sent")
	data := queue.NotificationSentData{
		NotificationID: n.ID,
		Type:           string(n.Type),
		Title:          n.Title,
		TargetUsers:    n.TargetUsers,
	}
	if n.TargetDepartment != nil {
		data.TargetDepartment = *n.TargetDepartment
	}
	if n.TargetYear != nil {
		data.TargetYear = *n.TargetYear
	}
	emit(ctx, s.pub, queue.NewEvent(queue.NotificationSent, senderID, data))
	return n, nil
}

// Inbox returns the notifications visible to userID, newest first, each
// flagged with that user's own read state.
func (s *NotificationService) Inbox(ctx context.Context, userID string) ([]model.InboxItem, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := s.notes.List(ctx)
	if err != nil {
		return nil, err
	}
	receipts, err := s.notes.Receipts(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []model.InboxItem{}
	for _, n := range all {
		if !n.VisibleTo(u) {
			continue
		}
		item := model.InboxItem{Notification: n}
		if at, ok := receipts[n.ID]; ok {
			item.Read = true
			item.ReadAt = &at
		}
		out = append(out, item)
	}
	return out, nil
}

// UnreadCount counts the visible notifications userID has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	items, err := s.Inbox(ctx, userID)
	if err != nil {
		return 0, err
	}
	unread := 0
	for _, it := range items {
		if !it.Read {
			unread++
		}
	}
	return unread, nil
}

// MarkAsRead records that userID read notification id.  Other recipients
// are unaffected.  A notification the user cannot see is reported as
// repository.ErrNotFound.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !n.VisibleTo(u) {
		return repository.ErrNotFound
	}
	return s.notes.MarkRead(ctx, userID, []string{id}, s.now())
}

// MarkAllAsRead marks every visible unread notification as read and
// returns how many were marked.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	items, err := s.Inbox(ctx, userID)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, it := range items {
		if !it.Read {
			ids = append(ids, it.ID)
		}
	}
	if err := s.notes.MarkRead(ctx, userID, ids, s.now()); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// recipients trims, drops blanks and de-duplicates ids, keeping order.
func recipients(ids []string) []string {
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

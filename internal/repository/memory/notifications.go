package memory

import (
	"context"
	"slices"
	"time"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/repository"
)

// NotificationRepo is the notification view of a Store.
type NotificationRepo struct{ s *Store }

func (r *NotificationRepo) Create(_ context.Context, n model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications = append(r.s.notifications, cloneNotification(n))
	return nil
}

// List returns every notification, newest first.
func (r *NotificationRepo) List(_ context.Context) ([]model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Notification, 0, len(r.s.notifications))
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		out = append(out, cloneNotification(r.s.notifications[i]))
	}
	return out, nil
}

func (r *NotificationRepo) GetByID(_ context.Context, id string) (model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := slices.IndexFunc(r.s.notifications, func(n model.Notification) bool { return n.ID == id })
	if i < 0 {
		return model.Notification{}, repository.ErrNotFound
	}
	return cloneNotification(r.s.notifications[i]), nil
}

// MarkRead stores receipts for userID; existing receipts keep their time.
func (r *NotificationRepo) MarkRead(_ context.Context, userID string, ids []string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	receipts, ok := r.s.reads[userID]
	if !ok {
		receipts = map[string]time.Time{}
		r.s.reads[userID] = receipts
	}
	for _, id := range ids {
		if _, seen := receipts[id]; !seen {
			receipts[id] = at
		}
	}
	return nil
}

func (r *NotificationRepo) Receipts(_ context.Context, userID string) (map[string]time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]time.Time, len(r.s.reads[userID]))
	for id, at := range r.s.reads[userID] {
		out[id] = at
	}
	return out, nil
}

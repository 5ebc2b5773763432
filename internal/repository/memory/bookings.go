package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/repository"
)

// BookingRepo is the facility booking view of a Store.
type BookingRepo struct{ s *Store }

func (r *BookingRepo) latestLocked(userID, resourceID string) *model.FacilityBooking {
	var latest *model.FacilityBooking
	for i := range r.s.bookings {
		b := r.s.bookings[i]
		if b.UserID != userID || b.ResourceID != resourceID {
			continue
		}
		if latest == nil || !b.BookedAt.Before(latest.BookedAt) {
			latest = &b
		}
	}
	return latest
}

func (r *BookingRepo) Latest(_ context.Context, userID, resourceID string) (*model.FacilityBooking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.latestLocked(userID, resourceID), nil
}

// CreateAfterCooldown stores b unless the previous booking of the same
// resource still blocks it at now.
func (r *BookingRepo) CreateAfterCooldown(_ context.Context, b model.FacilityBooking, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[b.UserID]; !ok {
		return repository.ErrNotFound
	}
	if latest := r.latestLocked(b.UserID, b.ResourceID); latest != nil && latest.CooldownUntil.After(now) {
		return &repository.CooldownError{Remaining: latest.CooldownUntil.Sub(now), Until: latest.CooldownUntil}
	}
	r.s.bookings = append(r.s.bookings, b)
	return nil
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(_ context.Context, userID string) ([]model.FacilityBooking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.FacilityBooking{}
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.Reverse(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].BookedAt.After(out[j].BookedAt) })
	return out, nil
}

package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/repository"
)

// UserRepo is the roster view of a Store.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.s.emails[u.Email]; taken {
		return repository.ErrEmailExists
	}
	r.s.users[u.ID] = u
	r.s.emails[u.Email] = u.ID
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.emails[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return r.s.users[id], nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// List returns every user with their derived balance, oldest signup first.
func (r *UserRepo) List(_ context.Context) ([]model.RosterEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.RosterEntry, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, model.RosterEntry{User: u, Points: r.s.balanceLocked(u.ID)})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a user and everything that belongs to them.
func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	delete(r.s.emails, u.Email)
	delete(r.s.reads, id)
	for hash, t := range r.s.tokens {
		if t.userID == id {
			delete(r.s.tokens, hash)
		}
	}
	r.s.activities = slices.DeleteFunc(r.s.activities, func(a model.Activity) bool { return a.UserID == id })
	r.s.bookings = slices.DeleteFunc(r.s.bookings, func(b model.FacilityBooking) bool { return b.UserID == id })

	var dropped []string
	kept := r.s.notifications[:0]
	for _, n := range r.s.notifications {
		if len(n.TargetUsers) > 0 && slices.Contains(n.TargetUsers, id) {
			n.TargetUsers = slices.DeleteFunc(slices.Clone(n.TargetUsers), func(t string) bool { return t == id })
			if len(n.TargetUsers) == 0 {
				dropped = append(dropped, n.ID)
				continue
			}
		}
		if n.SenderID == id {
			n.SenderID = ""
		}
		kept = append(kept, n)
	}
	r.s.notifications = kept
	for _, receipts := range r.s.reads {
		for _, nid := range dropped {
			delete(receipts, nid)
		}
	}
	return nil
}

func (r *UserRepo) UpdateProfileImage(_ context.Context, id, image string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ProfileImage = &image
	r.s.users[id] = u
	return nil
}

// TokenRepo is the refresh token view of a Store.
type TokenRepo struct{ s *Store }

func (r *TokenRepo) StoreRefresh(_ context.Context, userID, tokenHash string, exp time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return repository.ErrNotFound
	}
	r.s.tokens[tokenHash] = tokenRow{userID: userID, expiresAt: exp}
	return nil
}

func (r *TokenRepo) ValidateRefresh(_ context.Context, tokenHash string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[tokenHash]
	if !ok || t.revokedAt != nil || r.s.now().After(t.expiresAt) {
		return "", repository.ErrNotFound
	}
	return t.userID, nil
}

func (r *TokenRepo) RevokeByHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tokens[tokenHash]; ok && t.revokedAt == nil {
		now := r.s.now()
		t.revokedAt = &now
		r.s.tokens[tokenHash] = t
	}
	return nil
}

func (r *TokenRepo) RevokeAllForUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	for hash, t := range r.s.tokens {
		if t.userID == userID && t.revokedAt == nil {
			t.revokedAt = &now
			r.s.tokens[hash] = t
		}
	}
	return nil
}

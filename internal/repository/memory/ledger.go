package memory

import (
	"context"
	"sort"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/repository"
)

// LedgerRepo is the points ledger view of a Store.
type LedgerRepo struct{ s *Store }

// Apply appends a ledger entry unless it would take the balance below zero.
func (r *LedgerRepo) Apply(_ context.Context, a model.Activity) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[a.UserID]; !ok {
		return 0, repository.ErrNotFound
	}
	balance := r.s.balanceLocked(a.UserID)
	if balance+a.Delta < 0 {
		return balance, repository.ErrInsufficientPoints
	}
	r.s.activities = append(r.s.activities, a)
	return balance + a.Delta, nil
}

// History returns a user's entries in the order they were recorded.
func (r *LedgerRepo) History(_ context.Context, userID string) ([]model.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Activity{}
	for _, a := range r.s.activities {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *LedgerRepo) Balance(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.balanceLocked(userID), nil
}

// Leaderboard ranks students by balance, highest first, ties by name.
func (r *LedgerRepo) Leaderboard(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.LeaderboardEntry{}
	for _, u := range r.s.users {
		if u.Role != model.RoleStudent {
			continue
		}
		out = append(out, model.LeaderboardEntry{
			UserID:     u.ID,
			Name:       u.Name,
			Department: u.Department,
			Points:     r.s.balanceLocked(u.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

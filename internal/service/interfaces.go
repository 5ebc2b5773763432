// Package service implements the portal's domain operations on top of
// storage interfaces.  The MySQL repositories and the in-memory store both
// satisfy these interfaces.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/campus-portal/internal/model"
)

type UserStore interface {
	Create(ctx context.Context, u model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	List(ctx context.Context) ([]model.RosterEntry, error)
	Delete(ctx context.Context, id string) error
	UpdateProfileImage(ctx context.Context, id, image string) error
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type LedgerStore interface {
	Apply(ctx context.Context, a model.Activity) (int64, error)
	History(ctx context.Context, userID string) ([]model.Activity, error)
	Balance(ctx context.Context, userID string) (int64, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type BookingStore interface {
	Latest(ctx context.Context, userID, resourceID string) (*model.FacilityBooking, error)
	CreateAfterCooldown(ctx context.Context, b model.FacilityBooking, now time.Time) error
	ListByUser(ctx context.Context, userID string) ([]model.FacilityBooking, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n model.Notification) error
	List(ctx context.Context) ([]model.Notification, error)
	GetByID(ctx context.Context, id string) (model.Notification, error)
	MarkRead(ctx context.Context, userID string, ids []string, at time.Time) error
	Receipts(ctx context.Context, userID string) (map[string]time.Time, error)
}

var (
	// ErrInvalidCredentials covers every login failure; it never says
	// which of email or password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefresh is returned for unknown, expired or revoked
	// refresh tokens.
	ErrInvalidRefresh = errors.New("invalid refresh token")
	// ErrSelfDelete is returned when staff try to delete their own account.
	ErrSelfDelete = errors.New("cannot delete own account")
	// ErrInvalidInput wraps domain validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// clock is embedded by services so tests can pin the current time.
type clock struct {
	now func() time.Time
}

func newClock() clock { return clock{now: func() time.Time { return time.Now().UTC() }} }

// SetClock replaces the time source.
func (c *clock) SetClock(now func() time.Time) { c.now = now }

// Package memory provides an in-memory implementation of the portal
// stores, used by tests and by ephemeral runs (STORE_BACKEND=memory).  It
// follows the same contracts as the MySQL repositories, including the
// ledger floor, the booking cooldown gate and the delete cascade.  Every
// operation runs under one mutex, so read-modify-write sequences are
// serialized.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/iliyamo/campus-portal/internal/model"
)

type tokenRow struct {
	userID    string
	expiresAt time.Time
	revokedAt *time.Time
}

// Store holds the whole portal state.  Use the accessor methods to obtain
// repository views over it.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users         map[string]model.User
	emails        map[string]string // email -> user id
	tokens        map[string]tokenRow
	activities    []model.Activity
	bookings      []model.FacilityBooking
	notifications []model.Notification
	reads         map[string]map[string]time.Time // user id -> notification id -> read at
}

// New returns an empty store using the wall clock.
func New() *Store {
	return &Store{
		now:    func() time.Time { return time.Now().UTC() },
		users:  map[string]model.User{},
		emails: map[string]string{},
		tokens: map[string]tokenRow{},
		reads:  map[string]map[string]time.Time{},
	}
}

// SetClock replaces the clock used for refresh token expiry.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *UserRepo                 { return &UserRepo{s: s} }
func (s *Store) Tokens() *TokenRepo               { return &TokenRepo{s: s} }
func (s *Store) Ledger() *LedgerRepo              { return &LedgerRepo{s: s} }
func (s *Store) Bookings() *BookingRepo           { return &BookingRepo{s: s} }
func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{s: s} }

// balanceLocked sums a user's deltas.  Caller holds s.mu.
func (s *Store) balanceLocked(userID string) int64 {
	var total int64
	for _, a := range s.activities {
		if a.UserID == userID {
			total += a.Delta
		}
	}
	return total
}

func cloneNotification(n model.Notification) model.Notification {
	n.TargetUsers = slices.Clone(n.TargetUsers)
	return n
}

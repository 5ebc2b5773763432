package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/queue"
	"github.com/iliyamo/campus-portal/internal/repository/memory"
	"github.com/iliyamo/campus-portal/internal/service"
)

var (
	_ service.UserStore         = (*memory.UserRepo)(nil)
	_ service.TokenStore        = (*memory.TokenRepo)(nil)
	_ service.LedgerStore       = (*memory.LedgerRepo)(nil)
	_ service.BookingStore      = (*memory.BookingRepo)(nil)
	_ service.NotificationStore = (*memory.NotificationRepo)(nil)
)

// recorder is a Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type portal struct {
	store    *memory.Store
	pub      *recorder
	roster   *service.RosterService
	ledger   *service.LedgerService
	bookings *service.BookingService
	notes    *service.NotificationService
	now      time.Time
}

type option func(*service.RosterConfig, *service.CooldownPolicy)

func withStaffSignup(allow bool) option {
	return func(c *service.RosterConfig, _ *service.CooldownPolicy) { c.AllowStaffSignup = allow }
}

func withPolicy(p service.CooldownPolicy) option {
	return func(_ *service.RosterConfig, cp *service.CooldownPolicy) { *cp = p }
}

func newPortal(t *testing.T, opts ...option) *portal {
	t.Helper()
	cfg := service.RosterConfig{
		JWTSecret:        "test-secret",
		AccessTTLMin:     15,
		RefreshTTLDays:   7,
		BcryptCost:       bcrypt.MinCost,
		AllowStaffSignup: true,
	}
	policy := service.DefaultCooldownPolicy()
	for _, o := range opts {
		o(&cfg, &policy)
	}

	p := &portal{
		store: memory.New(),
		pub:   &recorder{},
		now:   time.Now().UTC().Truncate(time.Second),
	}
	clock := func() time.Time { return p.now }
	p.store.SetClock(clock)

	p.roster = service.NewRosterService(cfg, p.store.Users(), p.store.Tokens(), p.store.Ledger(), p.store.Bookings(), p.pub)
	p.ledger = service.NewLedgerService(p.store.Users(), p.store.Ledger(), p.pub)
	p.bookings = service.NewBookingService(p.store.Bookings(), policy, p.pub)
	p.notes = service.NewNotificationService(p.store.Users(), p.store.Notifications(), p.pub)
	p.roster.SetClock(clock)
	p.ledger.SetClock(clock)
	p.bookings.SetClock(clock)
	p.notes.SetClock(clock)
	return p
}

func (p *portal) advance(d time.Duration) { p.now = p.now.Add(d) }

func strp(s string) *string { return &s }

// signup registers a user and returns the public record.  dept and year may
// be empty.
func (p *portal) signup(t *testing.T, name string, role model.Role, dept, year string) model.User {
	t.Helper()
	s, err := p.roster.Signup(context.Background(), service.SignupInput{
		Name:       name,
		Email:      name + "@campus.edu",
		Password:   "pw-" + name,
		Role:       role,
		Department: strp(dept),
		Year:       strp(year),
	})
	require.NoError(t, err)
	p.advance(time.Millisecond)
	return s.User
}

func (p *portal) award(t *testing.T, userID string, delta int64) {
	t.Helper()
	_, err := p.ledger.UpdatePoints(context.Background(), userID, service.PointsInput{
		Delta:    delta,
		Category: model.CategoryEvent,
		Activity: "Attended event",
	})
	require.NoError(t, err)
}

var errBroker = errors.New("broker down")

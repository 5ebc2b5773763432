package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/campus-portal/internal/model"
)

// BookingRepo stores facility bookings.  Rows are never updated; the most
// recent booking per (user, resource) carries the cooldown that gates the
// next one.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = "id, user_id, resource_id, resource_name, resource_type, booking_date, time_slot, booked_at, cooldown_until"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (model.FacilityBooking, error) {
	var (
		b     model.FacilityBooking
		rtype string
	)
	err := s.Scan(&b.ID, &b.UserID, &b.ResourceID, &b.ResourceName, &rtype, &b.Date, &b.TimeSlot, &b.BookedAt, &b.CooldownUntil)
	b.ResourceType = model.ResourceType(rtype)
	return b, err
}

// Latest returns the user's most recent booking of a resource, or nil when
// the user never booked it.
func (r *BookingRepo) Latest(ctx context.Context, userID, resourceID string) (*model.FacilityBooking, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM facility_bookings WHERE user_id=? AND resource_id=? ORDER BY booked_at DESC LIMIT 1",
		userID, resourceID)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateAfterCooldown inserts b unless the user's previous booking of the
// same resource is still cooling down at now, in which case a
// *CooldownError is returned.  The check and the insert share one
// transaction with the user row locked.
func (r *BookingRepo) CreateAfterCooldown(ctx context.Context, b model.FacilityBooking, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var owner string
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", b.UserID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var until time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT cooldown_until FROM facility_bookings WHERE user_id=? AND resource_id=? ORDER BY booked_at DESC LIMIT 1",
		b.UserID, b.ResourceID).Scan(&until)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	case until.After(now):
		return &CooldownError{Remaining: until.Sub(now), Until: until}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO facility_bookings ("+bookingColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		b.ID, b.UserID, b.ResourceID, b.ResourceName, string(b.ResourceType), b.Date, b.TimeSlot, b.BookedAt, b.CooldownUntil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.FacilityBooking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM facility_bookings WHERE user_id=? ORDER BY booked_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.FacilityBooking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

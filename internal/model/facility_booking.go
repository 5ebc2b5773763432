package model

import "time"

// ResourceType groups bookable campus resources.  The cooldown applied
// after a booking depends on it.
type ResourceType string

const (
	ResourceStudyRoom ResourceType = "study_room"
	ResourceLab       ResourceType = "lab"
	ResourceLibrary   ResourceType = "library"
	ResourceSports    ResourceType = "sports"
	ResourceOther     ResourceType = "other"
)

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceStudyRoom, ResourceLab, ResourceLibrary, ResourceSports, ResourceOther:
		return true
	}
	return false
}

// FacilityBooking records a user's booking of a campus resource.  Bookings
// are append-only; the latest booking per (user, resource) decides whether
// the same user may book that resource again.
//
// Fields:
//  ID            – UUID primary key.
//  UserID        – user who booked.
//  ResourceID    – catalog identifier of the resource.
//  ResourceName  – display name captured at booking time.
//  ResourceType  – type used to choose the cooldown.
//  Date          – requested day (YYYY-MM-DD).
//  TimeSlot      – requested slot label.
//  BookedAt      – when the booking was made.
//  CooldownUntil – before this instant the user cannot rebook the resource.
type FacilityBooking struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	ResourceID    string       `json:"resource_id"`
	ResourceName  string       `json:"resource_name"`
	ResourceType  ResourceType `json:"resource_type"`
	Date          string       `json:"date"`
	TimeSlot      string       `json:"time_slot"`
	BookedAt      time.Time    `json:"booked_at"`
	CooldownUntil time.Time    `json:"cooldown_until"`
}

// CooldownRemaining returns how long the booking still blocks a rebooking
// at now.  It never returns a negative duration.
func (b FacilityBooking) CooldownRemaining(now time.Time) time.Duration {
	d := b.CooldownUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Availability is the answer of the cooldown gate for one resource.
type Availability struct {
	CanBook             bool          `json:"can_book"`
	CooldownRemaining   time.Duration `json:"-"`
	CooldownRemainingMS int64         `json:"cooldown_remaining_ms"`
	CooldownUntil       *time.Time    `json:"cooldown_until,omitempty"`
}

// AvailabilityAt evaluates the gate given the latest booking (nil when the
// user never booked the resource).
func AvailabilityAt(latest *FacilityBooking, now time.Time) Availability {
	if latest == nil {
		return Availability{CanBook: true}
	}
	remaining := latest.CooldownRemaining(now)
	a := Availability{
		CanBook:             remaining <= 0,
		CooldownRemaining:   remaining,
		CooldownRemainingMS: remaining.Milliseconds(),
	}
	if !a.CanBook {
		until := latest.CooldownUntil
		a.CooldownUntil = &until
	}
	return a
}

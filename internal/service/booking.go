package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/campus-portal/internal/model"
	"github.com/iliyamo/campus-portal/internal/queue"
)

// CooldownPolicy decides how long a user must wait before booking the same
// resource again.  It is the only place cooldown durations come from.
type CooldownPolicy struct {
	StudyRoom time.Duration
	Default   time.Duration
}

// DefaultCooldownPolicy is 60 minutes for study rooms, 30 for the rest.
func DefaultCooldownPolicy() CooldownPolicy {
	return CooldownPolicy{StudyRoom: 60 * time.Minute, Default: 30 * time.Minute}
}

// For returns the cooldown applied after booking a resource of type t.
func (p CooldownPolicy) For(t model.ResourceType) time.Duration {
	if t == model.ResourceStudyRoom {
		return p.StudyRoom
	}
	return p.Default
}

// BookingService gates facility bookings by cooldown.
type BookingService struct {
	clock
	bookings BookingStore
	policy   CooldownPolicy
	pub      Publisher
}

func NewBookingService(bookings BookingStore, policy CooldownPolicy, pub Publisher) *BookingService {
	return &BookingService{clock: newClock(), bookings: bookings, policy: policy, pub: pub}
}

// MaxResourceIDLen matches the width of facility_bookings.resource_id.
const MaxResourceIDLen = 64

func checkResourceID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: resource id is required", ErrInvalidInput)
	case utf8.RuneCountInString(id) > MaxResourceIDLen:
		return fmt.Errorf("%w: resource id longer than %d characters", ErrInvalidInput, MaxResourceIDLen)
	}
	return nil
}

// BookingInput is a booking request for one resource.
type BookingInput struct {
	ResourceID   string
	ResourceName string
	ResourceType model.ResourceType
	Date         string
	TimeSlot     string
}

// CanBookResource reports whether the user may book resourceID now and,
// if not, how long the cooldown still runs.  Cooldowns expire lazily by
// wall clock; nothing is scheduled.
func (s *BookingService) CanBookResource(ctx context.Context, userID, resourceID string) (model.Availability, error) {
	resourceID = strings.TrimSpace(resourceID)
	if err := checkResourceID(resourceID); err != nil {
		return model.Availability{}, err
	}
	latest, err := s.bookings.Latest(ctx, userID, resourceID)
	if err != nil {
		return model.Availability{}, err
	}
	return model.AvailabilityAt(latest, s.now()), nil
}

// AddFacilityBooking books a resource and starts its cooldown.  Booking
// during an active cooldown fails with *repository.CooldownError.
func (s *BookingService) AddFacilityBooking(ctx context.Context, userID string, in BookingInput) (model.FacilityBooking, error) {
	in.ResourceID = strings.TrimSpace(in.ResourceID)
	in.ResourceName = strings.TrimSpace(in.ResourceName)
	in.TimeSlot = strings.TrimSpace(in.TimeSlot)
	if in.ResourceType == "" {
		in.ResourceType = model.ResourceOther
	}
	if err := checkResourceID(in.ResourceID); err != nil {
		return model.FacilityBooking{}, err
	}
	switch {
	case in.ResourceName == "" || in.TimeSlot == "":
		return model.FacilityBooking{}, fmt.Errorf("%w: resource and time slot are required", ErrInvalidInput)
	case !in.ResourceType.Valid():
		return model.FacilityBooking{}, fmt.Errorf("%w: unknown resource type %q", ErrInvalidInput, in.ResourceType)
	}
	if _, err := time.Parse(time.DateOnly, in.Date); err != nil {
		return model.FacilityBooking{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	now := s.now()
	b := model.FacilityBooking{
		ID:            uuid.NewString(),
		UserID:        userID,
		ResourceID:    in.ResourceID,
		ResourceName:  in.ResourceName,
		ResourceType:  in.ResourceType,
		Date:          in.Date,
		TimeSlot:      in.TimeSlot,
		BookedAt:      now,
		CooldownUntil: now.Add(s.policy.For(in.ResourceType)),
	}
	if err := s.bookings.CreateAfterCooldown(ctx, b, now); err != nil {
		return model.FacilityBooking{}, err
	}
	log.Info().Str("user_id", userID).Str("resource_id", b.ResourceID).Time("cooldown_until", b.CooldownUntil).Msg("facility booked")
	emit(ctx, s.pub, queue.NewEvent(queue.FacilityBooked, userID, queue.FacilityBookedData{
		BookingID:     b.ID,
		ResourceID:    b.ResourceID,
		ResourceName:  b.ResourceName,
		ResourceType:  string(b.ResourceType),
		Date:          b.Date,
		TimeSlot:      b.TimeSlot,
		CooldownUntil: b.CooldownUntil,
	}))
	return b, nil
}

// ListBookings returns the user's bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, userID string) ([]model.FacilityBooking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

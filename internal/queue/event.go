// Package queue defines the domain events exchanged over RabbitMQ and the
// audit consumer that records them.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QueueName is the durable queue every domain event is published to.
const QueueName = "campus.events"

// Event types.
const (
	UserRegistered   = "user.registered"
	UserDeleted      = "user.deleted"
	PointsRecorded   = "points.recorded"
	FacilityBooked   = "facility.booked"
	NotificationSent = "notification.sent"
)

// Event is the envelope of every message on QueueName.  Data holds the
// event-specific payload so downstream consumers can log or react without
// querying the primary database.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	UserID     string          `json:"user_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an envelope around data.  A payload that cannot be
// marshalled is dropped rather than failing the caller.
func NewEvent(typ, userID string, data any) Event {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
	}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			ev.Data = b
		}
	}
	return ev
}

// PointsRecordedData is the payload of PointsRecorded.
type PointsRecordedData struct {
	ActivityID string `json:"activity_id"`
	Delta      int64  `json:"delta"`
	Category   string `json:"category"`
	Activity   string `json:"activity"`
	Balance    int64  `json:"balance"`
	ActorID    string `json:"actor_id,omitempty"`
}

// FacilityBookedData is the payload of FacilityBooked.
type FacilityBookedData struct {
	BookingID     string    `json:"booking_id"`
	ResourceID    string    `json:"resource_id"`
	ResourceName  string    `json:"resource_name"`
	ResourceType  string    `json:"resource_type"`
	Date          string    `json:"date"`
	TimeSlot      string    `json:"time_slot"`
	CooldownUntil time.Time `json:"cooldown_until"`
}

// NotificationSentData is the payload of NotificationSent.
type NotificationSentData struct {
	NotificationID   string   `json:"notification_id"`
	Type             string   `json:"type"`
	Title            string   `json:"title"`
	TargetUsers      []string `json:"target_users,omitempty"`
	TargetDepartment string   `json:"target_department,omitempty"`
	TargetYear       string   `json:"target_year,omitempty"`
}

// UserData is the payload of UserRegistered and UserDeleted.
type UserData struct {
	Email   string `json:"email,omitempty"`
	Role    string `json:"role,omitempty"`
	ActorID string `json:"actor_id,omitempty"`
}

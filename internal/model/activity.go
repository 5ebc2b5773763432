package model

import (
	"strings"
	"time"
)

// Category classifies an activity in the points ledger.
type Category string

const (
	CategoryEvent    Category = "event"
	CategoryAcademic Category = "academic"
	CategoryFacility Category = "facility"
	CategoryStore    Category = "store"
	CategoryOther    Category = "other"
)

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryEvent, CategoryAcademic, CategoryFacility, CategoryStore, CategoryOther:
		return true
	}
	return false
}

// CategoryFromLabel maps a legacy free-text activity label to a category
// using case-insensitive substring rules.  Rules are checked in order and
// the first hit wins.
func CategoryFromLabel(label string) Category {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "event"):
		return CategoryEvent
	case strings.Contains(l, "library"), strings.Contains(l, "lab"), strings.Contains(l, "facility"):
		return CategoryFacility
	case strings.Contains(l, "store"):
		return CategoryStore
	case strings.Contains(l, "academ"):
		return CategoryAcademic
	}
	return CategoryOther
}

// Activity is one immutable row of the `activities` table.  A user's
// balance is the sum of Delta over all of their activities.
//
// Fields:
//  ID          – UUID primary key.
//  UserID      – owner of the entry.
//  Activity    – short label shown in the history list.
//  Description – human readable reason.
//  Delta       – signed point change.
//  Category    – ledger category.
//  CreatedAt   – when the entry was recorded.
type Activity struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Activity    string    `json:"activity"`
	Description string    `json:"description"`
	Delta       int64     `json:"points"`
	Category    Category  `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// SumDeltas returns the balance implied by a history.
func SumDeltas(history []Activity) int64 {
	var total int64
	for _, a := range history {
		total += a.Delta
	}
	return total
}

// LeaderboardEntry is one ranked row of the public leaderboard.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Department *string `json:"department,omitempty"`
	Points     int64   `json:"points"`
}

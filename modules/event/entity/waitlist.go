package entity

import (
	"time"

	"github.com/google/uuid"
)

// WaitlistStatus transitions one-way: waiting -> notified -> responded|expired
type WaitlistStatus string

const (
	WaitlistStatusWaiting   WaitlistStatus = "waiting"
	WaitlistStatusNotified  WaitlistStatus = "notified"
	WaitlistStatusResponded WaitlistStatus = "responded"
	WaitlistStatusExpired   WaitlistStatus = "expired"
)

// EventWaitlist is the overflow queue entry for a full event.
// Priority strictly orders promotion candidates (lower = first).
type EventWaitlist struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	EventID    uuid.UUID      `db:"event_id" json:"event_id"`
	UserID     uuid.UUID      `db:"user_id" json:"user_id"`
	Status     WaitlistStatus `db:"status" json:"status"`
	Priority   int            `db:"priority" json:"priority"`
	JoinedAt   time.Time      `db:"joined_at" json:"joined_at"`
	NotifiedAt *time.Time     `db:"notified_at" json:"notified_at,omitempty"`
}

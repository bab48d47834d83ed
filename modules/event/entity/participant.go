package entity

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus represents a participant's RSVP state
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
)

// EventParticipant is membership + RSVP state for one user on one event.
// Unique on (event_id, user_id).
type EventParticipant struct {
	ID                    uuid.UUID        `db:"id" json:"id"`
	EventID               uuid.UUID        `db:"event_id" json:"event_id"`
	UserID                uuid.UUID        `db:"user_id" json:"user_id"`
	InvitationStatus      InvitationStatus `db:"invitation_status" json:"invitation_status"`
	RsvpDate              *time.Time       `db:"rsvp_date" json:"rsvp_date,omitempty"`
	OneHourReminderSentAt *time.Time       `db:"one_hour_reminder_sent_at" json:"-"`
	CreatedAt             time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updated_at"`
}

package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	EventStatusPlanning  EventStatus = "planning"
	EventStatusVoting    EventStatus = "voting"
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusCancelled || s == EventStatusCompleted
}

// Event represents one occurrence of a planned gathering
type Event struct {
	ID                    uuid.UUID   `db:"id" json:"id"`
	OrganizerID           uuid.UUID   `db:"organizer_id" json:"organizer_id"`
	Title                 string      `db:"title" json:"title"`
	Slug                  string      `db:"slug" json:"slug"`
	Description           *string     `db:"description" json:"description,omitempty"`
	EventType             *string     `db:"event_type" json:"event_type,omitempty"`
	Status                EventStatus `db:"status" json:"status"`
	ScheduledDate         *time.Time  `db:"scheduled_date" json:"scheduled_date,omitempty"`
	ScheduledTime         *string     `db:"scheduled_time" json:"scheduled_time,omitempty"` // "HH:MM"
	Timezone              string      `db:"timezone" json:"timezone"`
	VotingDeadline        *time.Time  `db:"voting_deadline" json:"voting_deadline,omitempty"`
	RsvpDeadline          *time.Time  `db:"rsvp_deadline" json:"rsvp_deadline,omitempty"`
	MaxAttendees          *int        `db:"max_attendees" json:"max_attendees,omitempty"`
	ExpectedAttendees     *int        `db:"expected_attendees" json:"expected_attendees,omitempty"`
	BudgetPerPerson       *float64    `db:"budget_per_person" json:"budget_per_person,omitempty"`
	AcceptanceThreshold   float64     `db:"acceptance_threshold" json:"acceptance_threshold"`
	FinalOptionID         *uuid.UUID  `db:"final_option_id" json:"final_option_id,omitempty"`
	FinalPlaceID          *uuid.UUID  `db:"final_place_id" json:"final_place_id,omitempty"`
	RecurringEventID      *uuid.UUID  `db:"recurring_event_id" json:"recurring_event_id,omitempty"`
	TemplateID            *uuid.UUID  `db:"template_id" json:"template_id,omitempty"`
	OccurrenceKey         *string     `db:"occurrence_key" json:"-"`
	RescheduleCount       int         `db:"reschedule_count" json:"reschedule_count"`
	PreviousScheduledDate *time.Time  `db:"previous_scheduled_date" json:"previous_scheduled_date,omitempty"`
	PreviousScheduledTime *string     `db:"previous_scheduled_time" json:"previous_scheduled_time,omitempty"`
	LastRescheduledAt     *time.Time  `db:"last_rescheduled_at" json:"last_rescheduled_at,omitempty"`
	UnresolvedNotifiedAt  *time.Time  `db:"unresolved_notified_at" json:"-"`
	AiAnalysisStartedAt   *time.Time  `db:"ai_analysis_started_at" json:"ai_analysis_started_at,omitempty"`
	AiAnalysisProgress    JSONB       `db:"ai_analysis_progress" json:"ai_analysis_progress,omitempty"`
	Version               int         `db:"version" json:"-"`
	CreatedAt             time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time   `db:"updated_at" json:"updated_at"`
}

// ScheduledInstant resolves ScheduledDate + ScheduledTime in the event's
// timezone to an absolute instant.
func (e *Event) ScheduledInstant() (time.Time, error) {
	if e.ScheduledDate == nil {
		return time.Time{}, errors.New("event has no scheduled date")
	}

	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", e.Timezone, err)
	}

	hour, minute := 0, 0
	if e.ScheduledTime != nil {
		if _, err := fmt.Sscanf(*e.ScheduledTime, "%d:%d", &hour, &minute); err != nil {
			return time.Time{}, fmt.Errorf("invalid scheduled time %q: %w", *e.ScheduledTime, err)
		}
	}

	d := *e.ScheduledDate
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), nil
}

// JSONB is a Postgres jsonb column mapped to a generic map.
type JSONB map[string]interface{}

func (a JSONB) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *JSONB) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &a)
}

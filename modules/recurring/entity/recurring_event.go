package entity

import (
	"time"

	"github.com/google/uuid"
)

// RecurrencePattern picks the occurrence rule for a template
type RecurrencePattern string

const (
	PatternDaily   RecurrencePattern = "daily"
	PatternWeekly  RecurrencePattern = "weekly"
	PatternMonthly RecurrencePattern = "monthly"
	PatternYearly  RecurrencePattern = "yearly"
)

// WeekdayMask is a 7-bit set over time.Weekday (bit 0 = Sunday).
type WeekdayMask int

func (m WeekdayMask) Has(d time.Weekday) bool {
	return m&(1<<uint(d)) != 0
}

func MaskOf(days ...time.Weekday) WeekdayMask {
	var m WeekdayMask
	for _, d := range days {
		m |= 1 << uint(d)
	}
	return m
}

// RecurringEvent is a template that spawns concrete events on a schedule.
// At most one of EndDate / OccurrenceCount bounds generation; with neither
// set the template is open-ended.
type RecurringEvent struct {
	ID                uuid.UUID         `db:"id" json:"id"`
	OrganizerID       uuid.UUID         `db:"organizer_id" json:"organizer_id"`
	Title             string            `db:"title" json:"title"`
	EventType         *string           `db:"event_type" json:"event_type,omitempty"`
	Pattern           RecurrencePattern `db:"pattern" json:"pattern"`
	DaysOfWeek        WeekdayMask       `db:"days_of_week" json:"days_of_week"`
	DayOfMonth        int               `db:"day_of_month" json:"day_of_month"`
	Month             int               `db:"month" json:"month"`
	DayOfYear         int               `db:"day_of_year" json:"day_of_year"`
	StartDate         time.Time         `db:"start_date" json:"start_date"`
	EndDate           *time.Time        `db:"end_date" json:"end_date,omitempty"`
	OccurrenceCount   *int              `db:"occurrence_count" json:"occurrence_count,omitempty"`
	AutoCreateEvents  bool              `db:"auto_create_events" json:"auto_create_events"`
	DaysInAdvance     int               `db:"days_in_advance" json:"days_in_advance"`
	ScheduledTime     *string           `db:"scheduled_time" json:"scheduled_time,omitempty"` // "HH:MM"
	Timezone          string            `db:"timezone" json:"timezone"`
	ExpectedAttendees *int              `db:"expected_attendees" json:"expected_attendees,omitempty"`
	BudgetPerPerson   *float64          `db:"budget_per_person" json:"budget_per_person,omitempty"`
	LastGeneratedAt   *time.Time        `db:"last_generated_at" json:"last_generated_at,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

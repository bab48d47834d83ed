package dto

import (
	"time"

	"hangout-api/modules/recurring/entity"

	"github.com/google/uuid"
)

type CreateRecurringEventRequest struct {
	Title             string   `json:"title" validate:"required"`
	EventType         *string  `json:"event_type"`
	Pattern           string   `json:"pattern" validate:"required"` // daily | weekly | monthly | yearly
	DaysOfWeek        []string `json:"days_of_week"`                // "monday".."sunday"
	DayOfMonth        int      `json:"day_of_month"`
	Month             int      `json:"month"`
	DayOfYear         int      `json:"day_of_year"`
	StartDate         string   `json:"start_date" validate:"required"` // "2006-01-02"
	EndDate           *string  `json:"end_date"`
	OccurrenceCount   *int     `json:"occurrence_count"`
	AutoCreateEvents  bool     `json:"auto_create_events"`
	DaysInAdvance     int      `json:"days_in_advance"`
	ScheduledTime     *string  `json:"scheduled_time"` // "HH:MM"
	Timezone          string   `json:"timezone"`
	ExpectedAttendees *int     `json:"expected_attendees"`
	BudgetPerPerson   *float64 `json:"budget_per_person"`
}

type RecurringEventResponse struct {
	ID               uuid.UUID  `json:"id"`
	OrganizerID      uuid.UUID  `json:"organizer_id"`
	Title            string     `json:"title"`
	Pattern          string     `json:"pattern"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	OccurrenceCount  *int       `json:"occurrence_count,omitempty"`
	AutoCreateEvents bool       `json:"auto_create_events"`
	DaysInAdvance    int        `json:"days_in_advance"`
	LastGeneratedAt  *time.Time `json:"last_generated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type UpcomingOccurrencesResponse struct {
	RecurringEventID uuid.UUID   `json:"recurring_event_id"`
	Occurrences      []time.Time `json:"occurrences"`
}

func ToRecurringEventResponse(t *entity.RecurringEvent) RecurringEventResponse {
	return RecurringEventResponse{
		ID:               t.ID,
		OrganizerID:      t.OrganizerID,
		Title:            t.Title,
		Pattern:          string(t.Pattern),
		StartDate:        t.StartDate,
		EndDate:          t.EndDate,
		OccurrenceCount:  t.OccurrenceCount,
		AutoCreateEvents: t.AutoCreateEvents,
		DaysInAdvance:    t.DaysInAdvance,
		LastGeneratedAt:  t.LastGeneratedAt,
		CreatedAt:        t.CreatedAt,
	}
}

package dto

import (
	"time"

	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
)

type CreateEventRequest struct {
	Title               string   `json:"title" validate:"required"`
	Description         string   `json:"description"`
	EventType           string   `json:"event_type"`
	ScheduledDate       string   `json:"scheduled_date"` // "2006-01-02"
	ScheduledTime       string   `json:"scheduled_time"` // "HH:MM"
	Timezone            string   `json:"timezone"`
	RsvpDeadline        *string  `json:"rsvp_deadline"`
	MaxAttendees        *int     `json:"max_attendees"`
	ExpectedAttendees   *int     `json:"expected_attendees"`
	BudgetPerPerson     *float64 `json:"budget_per_person"`
	AcceptanceThreshold *float64 `json:"acceptance_threshold"`
	Participants        []string `json:"participants"`
}

type AddOptionRequest struct {
	PlaceID                *string  `json:"place_id"`
	Provider               string   `json:"provider"`
	ExternalID             string   `json:"external_id"`
	Name                   string   `json:"name"` // display name when the directory cannot resolve one
	Pros                   []string `json:"pros"`
	Cons                   []string `json:"cons"`
	EstimatedCostPerPerson *float64 `json:"estimated_cost_per_person"`
}

type OpenVotingRequest struct {
	VotingDeadline string `json:"voting_deadline" validate:"required"` // RFC3339
}

type RescheduleEventRequest struct {
	NewDate string `json:"new_date" validate:"required"` // "2006-01-02"
	NewTime string `json:"new_time"`                     // "HH:MM"
	Reason  string `json:"reason" validate:"required"`
}

type CancelEventRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type OptionResponse struct {
	ID                     uuid.UUID         `json:"id"`
	EventID                uuid.UUID         `json:"event_id"`
	Venue                  entity.Venue      `json:"venue"`
	AiScore                *float64          `json:"ai_score,omitempty"`
	Pros                   entity.StringList `json:"pros,omitempty"`
	Cons                   entity.StringList `json:"cons,omitempty"`
	EstimatedCostPerPerson *float64          `json:"estimated_cost_per_person,omitempty"`
	AddedAt                time.Time         `json:"added_at"`
}

type ParticipantResponse struct {
	UserID           uuid.UUID  `json:"user_id"`
	EventID          uuid.UUID  `json:"event_id"`
	InvitationStatus string     `json:"invitation_status"`
	RsvpDate         *time.Time `json:"rsvp_date,omitempty"`
}

type WaitlistEntryResponse struct {
	UserID     uuid.UUID  `json:"user_id"`
	Status     string     `json:"status"`
	Priority   int        `json:"priority"`
	JoinedAt   time.Time  `json:"joined_at"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
}

type EventResponse struct {
	Event        *entity.Event           `json:"event"`
	Options      []OptionResponse        `json:"options,omitempty"`
	Participants []ParticipantResponse   `json:"participants,omitempty"`
	Waitlist     []WaitlistEntryResponse `json:"waitlist,omitempty"`
}

type AuditLogResponse struct {
	Entries []entity.EventAuditLog `json:"entries"`
	Total   int                    `json:"total"`
}

func ToOptionResponse(o *entity.EventPlaceOption) OptionResponse {
	return OptionResponse{
		ID:                     o.ID,
		EventID:                o.EventID,
		Venue:                  o.Venue(),
		AiScore:                o.AiScore,
		Pros:                   o.Pros,
		Cons:                   o.Cons,
		EstimatedCostPerPerson: o.EstimatedCostPerPerson,
		AddedAt:                o.AddedAt,
	}
}

func ToParticipantResponse(p *entity.EventParticipant) ParticipantResponse {
	return ParticipantResponse{
		UserID:           p.UserID,
		EventID:          p.EventID,
		InvitationStatus: string(p.InvitationStatus),
		RsvpDate:         p.RsvpDate,
	}
}

func ToWaitlistEntryResponse(w *entity.EventWaitlist) WaitlistEntryResponse {
	return WaitlistEntryResponse{
		UserID:     w.UserID,
		Status:     string(w.Status),
		Priority:   w.Priority,
		JoinedAt:   w.JoinedAt,
		NotifiedAt: w.NotifiedAt,
	}
}

func ToEventResponse(event *entity.Event, options []entity.EventPlaceOption, participants []entity.EventParticipant, waitlist []entity.EventWaitlist) *EventResponse {
	resp := &EventResponse{Event: event}
	for i := range options {
		resp.Options = append(resp.Options, ToOptionResponse(&options[i]))
	}
	for i := range participants {
		resp.Participants = append(resp.Participants, ToParticipantResponse(&participants[i]))
	}
	for i := range waitlist {
		resp.Waitlist = append(resp.Waitlist, ToWaitlistEntryResponse(&waitlist[i]))
	}
	return resp
}

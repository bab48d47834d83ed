package service

import (
	"context"
	"fmt"
	"time"

	"hangout-api/core/constants"
	"hangout-api/core/errors"
	"hangout-api/core/logger"
	"hangout-api/core/params"
	"hangout-api/core/utils"
	"hangout-api/modules/event/dto"
	"hangout-api/modules/event/entity"
	"hangout-api/modules/event/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
)

const (
	defaultTimezone = "Asia/Ho_Chi_Minh"
	dateLayout      = "2006-01-02"
)

// EventService handles event lifecycle business logic
type EventService struct {
	events       repository.EventRepositoryInterface
	options      repository.OptionRepositoryInterface
	participants repository.ParticipantRepositoryInterface
	waitlist     repository.WaitlistRepositoryInterface
	audits       repository.AuditRepositoryInterface
	checkIns     repository.CheckInRepositoryInterface
	machine      *StateMachine
	notifier     Notifier
	places       PlaceDirectory
}

type EventServiceInterface interface {
	CreateEvent(ctx context.Context, organizerID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError)
	GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError)
	GetMyEvents(ctx context.Context, organizerID uuid.UUID, qp params.QueryParams) (*repository.PaginatedEvents, *errors.AppError)
	AddPlaceOption(ctx context.Context, eventID, actorID uuid.UUID, req *dto.AddOptionRequest) (*dto.OptionResponse, *errors.AppError)
	OpenVoting(ctx context.Context, eventID, actorID uuid.UUID, req *dto.OpenVotingRequest) (*dto.EventResponse, *errors.AppError)
	RescheduleEvent(ctx context.Context, eventID, actorID uuid.UUID, req *dto.RescheduleEventRequest) (*dto.EventResponse, *errors.AppError)
	CancelEvent(ctx context.Context, eventID, actorID uuid.UUID, reason string) (*dto.EventResponse, *errors.AppError)
	CompleteEvent(ctx context.Context, eventID uuid.UUID, actorID *uuid.UUID) (*dto.EventResponse, *errors.AppError)
	GetAuditLog(ctx context.Context, eventID uuid.UUID) (*dto.AuditLogResponse, *errors.AppError)
	SweepCompletion(ctx context.Context, now time.Time) error
}

func NewEventService(
	events repository.EventRepositoryInterface,
	options repository.OptionRepositoryInterface,
	participants repository.ParticipantRepositoryInterface,
	waitlist repository.WaitlistRepositoryInterface,
	audits repository.AuditRepositoryInterface,
	checkIns repository.CheckInRepositoryInterface,
	machine *StateMachine,
	notifier Notifier,
	places PlaceDirectory,
) *EventService {
	return &EventService{
		events:       events,
		options:      options,
		participants: participants,
		waitlist:     waitlist,
		audits:       audits,
		checkIns:     checkIns,
		machine:      machine,
		notifier:     notifier,
		places:       places,
	}
}

// CreateEvent creates a new event in planning with its invited participants
func (s *EventService) CreateEvent(ctx context.Context, organizerID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError) {
	if req.Title == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Title is required", nil)
	}

	tz := req.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid timezone", err)
	}

	threshold := constants.DefaultAcceptanceThreshold
	if req.AcceptanceThreshold != nil {
		threshold = *req.AcceptanceThreshold
		if threshold < 0 || threshold > 1 {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Acceptance threshold must be between 0 and 1", nil)
		}
	}

	event := &entity.Event{
		OrganizerID:         organizerID,
		Title:               req.Title,
		Slug:                slug.Make(req.Title) + "-" + utils.GenerateID(),
		Status:              entity.EventStatusPlanning,
		Timezone:            tz,
		MaxAttendees:        req.MaxAttendees,
		ExpectedAttendees:   req.ExpectedAttendees,
		BudgetPerPerson:     req.BudgetPerPerson,
		AcceptanceThreshold: threshold,
	}
	if req.Description != "" {
		event.Description = &req.Description
	}
	if req.EventType != "" {
		event.EventType = &req.EventType
	}
	if req.ScheduledDate != "" {
		d, err := time.Parse(dateLayout, req.ScheduledDate)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid scheduled date format", err)
		}
		event.ScheduledDate = &d
	}
	if req.ScheduledTime != "" {
		t := req.ScheduledTime
		event.ScheduledTime = &t
	}
	if req.RsvpDeadline != nil && *req.RsvpDeadline != "" {
		d, err := time.Parse(time.RFC3339, *req.RsvpDeadline)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid RSVP deadline format", err)
		}
		event.RsvpDeadline = &d
	}

	created, err := s.events.Create(ctx, event)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create event", err)
	}

	// Organizer participates by default
	_, _ = s.participants.Create(ctx, &entity.EventParticipant{
		EventID:          created.ID,
		UserID:           organizerID,
		InvitationStatus: entity.InvitationStatusAccepted,
	})

	for _, userIDStr := range req.Participants {
		userID, parseErr := uuid.Parse(userIDStr)
		if parseErr != nil {
			continue
		}
		if _, err := s.participants.Create(ctx, &entity.EventParticipant{
			EventID:          created.ID,
			UserID:           userID,
			InvitationStatus: entity.InvitationStatusPending,
		}); err != nil {
			continue
		}
	}

	return s.GetEvent(ctx, created.ID)
}

// GetEvent retrieves an event with its options, participants and waitlist
func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	options, _ := s.options.ListByEventID(ctx, id)
	participants, _ := s.participants.ListByEventID(ctx, id)
	waitlist, _ := s.waitlist.ListByEventID(ctx, id)

	return dto.ToEventResponse(event, options, participants, waitlist), nil
}

func (s *EventService) GetMyEvents(ctx context.Context, organizerID uuid.UUID, qp params.QueryParams) (*repository.PaginatedEvents, *errors.AppError) {
	result, err := s.events.GetByOrganizerID(ctx, organizerID, qp)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get events", err)
	}
	return result, nil
}

// AddPlaceOption attaches a candidate venue to an event still collecting options
func (s *EventService) AddPlaceOption(ctx context.Context, eventID, actorID uuid.UUID, req *dto.AddOptionRequest) (*dto.OptionResponse, *errors.AppError) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}

	if event.Status != entity.EventStatusPlanning && event.Status != entity.EventStatusVoting {
		return nil, errors.NewAppError(errors.ErrInvalidTransition,
			fmt.Sprintf("Cannot add options to event in status %s", event.Status), nil)
	}

	option := &entity.EventPlaceOption{
		EventID:                eventID,
		Pros:                   req.Pros,
		Cons:                   req.Cons,
		EstimatedCostPerPerson: req.EstimatedCostPerPerson,
		AddedBy:                &actorID,
	}

	if req.PlaceID != nil && *req.PlaceID != "" {
		placeID, parseErr := uuid.Parse(*req.PlaceID)
		if parseErr != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid place ID", parseErr)
		}
		option.PlaceID = &placeID
	} else {
		if req.Provider == "" || req.ExternalID == "" {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Either place_id or provider + external_id is required", nil)
		}
		external, lookupErr := s.places.LookupExternalPlace(ctx, req.Provider, req.ExternalID)
		if lookupErr != nil {
			logger.Error("EventService:AddPlaceOption:LookupExternalPlace", "error", lookupErr,
				"provider", req.Provider, "external_id", req.ExternalID)
			return nil, errors.NewAppError(errors.ErrNotFound, "External place not found", lookupErr)
		}
		if external == nil {
			// Directory disabled or no record; keep the caller-supplied reference
			external = &entity.ExternalVenue{
				Provider:   req.Provider,
				ExternalID: req.ExternalID,
				Name:       req.Name,
			}
		}
		option.External = external
	}

	if vErr := option.Validate(); vErr != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, vErr.Error(), nil)
	}

	created, err := s.options.Create(ctx, option)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to add option", err)
	}

	resp := dto.ToOptionResponse(created)
	return &resp, nil
}

// OpenVoting transitions Planning -> Voting once at least one option exists
func (s *EventService) OpenVoting(ctx context.Context, eventID, actorID uuid.UUID, req *dto.OpenVotingRequest) (*dto.EventResponse, *errors.AppError) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.OrganizerID != actorID {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the organizer can open voting", nil)
	}

	options, err := s.options.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load options", err)
	}
	if len(options) == 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "At least one place option is required before voting opens", nil)
	}

	deadline, parseErr := time.Parse(time.RFC3339, req.VotingDeadline)
	if parseErr != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid voting deadline format", parseErr)
	}
	if !deadline.After(time.Now()) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Voting deadline must be in the future", nil)
	}

	updated, appErr := s.machine.Transition(ctx, TransitionRequest{
		EventID:   eventID,
		NewStatus: entity.EventStatusVoting,
		ChangedBy: &actorID,
		Reason:    "voting opened",
		AdditionalData: entity.JSONB{
			"voting_deadline": deadline.Format(time.RFC3339),
			"option_count":    len(options),
		},
		Apply: func(e *entity.Event) *errors.AppError {
			e.VotingDeadline = &deadline
			return nil
		},
	})
	if appErr != nil {
		return nil, appErr
	}

	s.notifyParticipants(ctx, updated, constants.NotificationKindVotingOpened, map[string]interface{}{
		"voting_deadline": deadline.Format(time.RFC3339),
	})

	return s.GetEvent(ctx, updated.ID)
}

// RescheduleEvent applies a new schedule without changing status. A confirmed
// event stays confirmed and its participants are re-notified.
func (s *EventService) RescheduleEvent(ctx context.Context, eventID, actorID uuid.UUID, req *dto.RescheduleEventRequest) (*dto.EventResponse, *errors.AppError) {
	if req.Reason == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Reason is required for rescheduling", nil)
	}

	newDate, parseErr := time.Parse(dateLayout, req.NewDate)
	if parseErr != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid new date format", parseErr)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.OrganizerID != actorID {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the organizer can reschedule", nil)
	}

	var oldDate, oldTime, newTimeStr string
	if event.ScheduledDate != nil {
		oldDate = event.ScheduledDate.Format(dateLayout)
	}
	if event.ScheduledTime != nil {
		oldTime = *event.ScheduledTime
	}
	newTimeStr = req.NewTime
	if newTimeStr == "" {
		newTimeStr = oldTime
	}

	updated, appErr := s.machine.Transition(ctx, TransitionRequest{
		EventID:    eventID,
		SameStatus: true,
		ChangedBy:  &actorID,
		Reason:     req.Reason,
		AdditionalData: entity.JSONB{
			"previous_date": oldDate,
			"previous_time": oldTime,
			"new_date":      req.NewDate,
			"new_time":      newTimeStr,
		},
		Apply: func(e *entity.Event) *errors.AppError {
			now := time.Now()
			e.PreviousScheduledDate = e.ScheduledDate
			e.PreviousScheduledTime = e.ScheduledTime
			e.ScheduledDate = &newDate
			if req.NewTime != "" {
				t := req.NewTime
				e.ScheduledTime = &t
			}
			e.RescheduleCount++
			e.LastRescheduledAt = &now
			return nil
		},
		TxSideEffect: func(tx *sqlx.Tx) error {
			// Reminders must re-fire against the new schedule
			return s.participants.ResetRemindersTx(ctx, tx, eventID)
		},
	})
	if appErr != nil {
		return nil, appErr
	}

	s.notifyParticipants(ctx, updated, constants.NotificationKindReschedule, map[string]interface{}{
		"previous_date": oldDate,
		"previous_time": oldTime,
		"new_date":      req.NewDate,
		"new_time":      newTimeStr,
		"reason":        req.Reason,
	})

	return s.GetEvent(ctx, updated.ID)
}

// CancelEvent transitions to the terminal cancelled state
func (s *EventService) CancelEvent(ctx context.Context, eventID, actorID uuid.UUID, reason string) (*dto.EventResponse, *errors.AppError) {
	if reason == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Reason is required for cancellation", nil)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.OrganizerID != actorID {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the organizer can cancel", nil)
	}

	updated, appErr := s.machine.Transition(ctx, TransitionRequest{
		EventID:   eventID,
		NewStatus: entity.EventStatusCancelled,
		ChangedBy: &actorID,
		Reason:    reason,
	})
	if appErr != nil {
		return nil, appErr
	}

	s.notifyParticipants(ctx, updated, constants.NotificationKindStatusChange, map[string]interface{}{
		"new_status": string(entity.EventStatusCancelled),
		"reason":     reason,
	})

	return s.GetEvent(ctx, updated.ID)
}

// CompleteEvent transitions Confirmed -> Completed and records no-shows
func (s *EventService) CompleteEvent(ctx context.Context, eventID uuid.UUID, actorID *uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	updated, appErr := s.machine.Transition(ctx, TransitionRequest{
		EventID:   eventID,
		NewStatus: entity.EventStatusCompleted,
		ChangedBy: actorID,
		Reason:    "event completed",
	})
	if appErr != nil {
		return nil, appErr
	}

	noShows, err := s.checkIns.MarkNoShows(ctx, eventID)
	if err != nil {
		logger.Error("EventService:CompleteEvent:MarkNoShows", "error", err, "event_id", eventID)
	} else if noShows > 0 {
		logger.Info("EventService:CompleteEvent:NoShows", "event_id", eventID, "count", noShows)
	}

	return s.GetEvent(ctx, updated.ID)
}

func (s *EventService) GetAuditLog(ctx context.Context, eventID uuid.UUID) (*dto.AuditLogResponse, *errors.AppError) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}

	entries, err := s.audits.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load audit log", err)
	}

	return &dto.AuditLogResponse{Entries: entries, Total: len(entries)}, nil
}

// SweepCompletion moves confirmed events whose scheduled instant has elapsed
// to completed. Idempotent and safe under concurrent sweep workers: the
// transition CAS makes the second worker's attempt a no-op failure. The
// query has no lower bound on the schedule, so events stranded by a long
// sweep outage still complete.
func (s *EventService) SweepCompletion(ctx context.Context, now time.Time) error {
	events, err := s.events.ListConfirmedScheduledDue(ctx, now)
	if err != nil {
		return err
	}

	for i := range events {
		event := &events[i]
		instant, insErr := event.ScheduledInstant()
		if insErr != nil {
			logger.Warn("EventService:SweepCompletion:BadSchedule", "event_id", event.ID, "error", insErr)
			continue
		}
		if instant.After(now) {
			continue
		}

		if _, appErr := s.CompleteEvent(ctx, event.ID, nil); appErr != nil {
			// A concurrent sweep already completed it; anything else is logged
			if appErr.Code != errors.ErrInvalidTransition && appErr.Code != errors.ErrConcurrentModification {
				logger.Error("EventService:SweepCompletion:Complete", "error", appErr, "event_id", event.ID)
			}
		}
	}

	return nil
}

// notifyParticipants fans a notification out to all accepted participants.
// Failures are logged, never propagated: delivery is fire-and-forget.
func (s *EventService) notifyParticipants(ctx context.Context, event *entity.Event, kind string, data map[string]interface{}) {
	participants, err := s.participants.ListByStatus(ctx, event.ID, entity.InvitationStatusAccepted)
	if err != nil {
		logger.Error("EventService:notifyParticipants:List", "error", err, "event_id", event.ID)
		return
	}

	for _, p := range participants {
		if err := s.notifier.NotifyParticipant(ctx, p.UserID, event.ID, kind, data); err != nil {
			logger.Error("EventService:notifyParticipants:Notify", "error", err,
				"event_id", event.ID, "user_id", p.UserID, "kind", kind)
		}
	}
}

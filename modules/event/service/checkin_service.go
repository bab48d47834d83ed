package service

import (
	"context"
	"time"

	"hangout-api/core/errors"
	"hangout-api/modules/event/dto"
	"hangout-api/modules/event/entity"
	"hangout-api/modules/event/repository"

	"github.com/google/uuid"
)

// CheckInService records attendance on confirmed events
type CheckInService struct {
	events       repository.EventRepositoryInterface
	participants repository.ParticipantRepositoryInterface
	checkins     repository.CheckInRepositoryInterface
}

type CheckInServiceInterface interface {
	RecordCheckIn(ctx context.Context, eventID, userID uuid.UUID, req *dto.CheckInRequest) *errors.AppError
	ListCheckIns(ctx context.Context, eventID uuid.UUID) ([]entity.EventCheckIn, *errors.AppError)
}

func NewCheckInService(
	events repository.EventRepositoryInterface,
	participants repository.ParticipantRepositoryInterface,
	checkins repository.CheckInRepositoryInterface,
) *CheckInService {
	return &CheckInService{events: events, participants: participants, checkins: checkins}
}

// RecordCheckIn marks the user present. Repeated check-ins are absorbed by
// the unique (event_id, user_id) constraint and do not error.
func (s *CheckInService) RecordCheckIn(ctx context.Context, eventID, userID uuid.UUID, req *dto.CheckInRequest) *errors.AppError {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.Status != entity.EventStatusConfirmed && event.Status != entity.EventStatusCompleted {
		return errors.NewAppError(errors.ErrInvalidTransition, "Check-in is only open on confirmed events", nil)
	}

	participant, err := s.participants.Get(ctx, eventID, userID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to load participant", err)
	}
	if participant == nil || participant.InvitationStatus != entity.InvitationStatusAccepted {
		return errors.NewAppError(errors.ErrForbidden, "Only accepted participants can check in", nil)
	}

	method := entity.CheckInMethodManual
	switch entity.CheckInMethod(req.Method) {
	case entity.CheckInMethodQRCode:
		method = entity.CheckInMethodQRCode
	case entity.CheckInMethodGeofence:
		method = entity.CheckInMethodGeofence
	}

	if _, err := s.checkins.Insert(ctx, &entity.EventCheckIn{
		EventID:     eventID,
		UserID:      userID,
		Method:      method,
		Lat:         req.Lat,
		Lng:         req.Lng,
		CheckedInAt: time.Now(),
	}); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to record check-in", err)
	}

	return nil
}

func (s *CheckInService) ListCheckIns(ctx context.Context, eventID uuid.UUID) ([]entity.EventCheckIn, *errors.AppError) {
	rows, err := s.checkins.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list check-ins", err)
	}
	return rows, nil
}

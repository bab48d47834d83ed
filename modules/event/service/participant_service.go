package service

import (
	"context"
	"fmt"
	"time"

	"hangout-api/core/config"
	"hangout-api/core/constants"
	"hangout-api/core/errors"
	"hangout-api/core/logger"
	"hangout-api/core/redis"
	"hangout-api/modules/event/dto"
	"hangout-api/modules/event/entity"
	"hangout-api/modules/event/repository"

	"github.com/google/uuid"
)

const promotionLockTTL = 15 * time.Second

// ParticipantService owns RSVP handling, capacity enforcement and the
// waitlist promotion chain.
type ParticipantService struct {
	events       repository.EventRepositoryInterface
	participants repository.ParticipantRepositoryInterface
	waitlist     repository.WaitlistRepositoryInterface
	locker       redis.Locker
	notifier     Notifier
}

type ParticipantServiceInterface interface {
	InviteParticipant(ctx context.Context, eventID, actorID, userID uuid.UUID) *errors.AppError
	RespondToInvitation(ctx context.Context, eventID, userID uuid.UUID, req *dto.RespondInvitationRequest) (*dto.ParticipantResponse, *errors.AppError)
	LeaveEvent(ctx context.Context, eventID, userID uuid.UUID) *errors.AppError
	RespondToPromotion(ctx context.Context, eventID, userID uuid.UUID, req *dto.WaitlistRespondRequest) *errors.AppError
	SweepWaitlistExpiry(ctx context.Context, now time.Time) error
}

func NewParticipantService(
	events repository.EventRepositoryInterface,
	participants repository.ParticipantRepositoryInterface,
	waitlist repository.WaitlistRepositoryInterface,
	locker redis.Locker,
	notifier Notifier,
) *ParticipantService {
	return &ParticipantService{
		events:       events,
		participants: participants,
		waitlist:     waitlist,
		locker:       locker,
		notifier:     notifier,
	}
}

// InviteParticipant adds a pending invitation. Organizer only.
func (s *ParticipantService) InviteParticipant(ctx context.Context, eventID, actorID, userID uuid.UUID) *errors.AppError {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.OrganizerID != actorID {
		return errors.NewAppError(errors.ErrForbidden, "Only the organizer can invite participants", nil)
	}
	if event.Status.IsTerminal() {
		return errors.NewAppError(errors.ErrInvalidTransition, "Event is no longer active", nil)
	}

	created, err := s.participants.Create(ctx, &entity.EventParticipant{
		EventID:          eventID,
		UserID:           userID,
		InvitationStatus: entity.InvitationStatusPending,
	})
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to invite participant", err)
	}
	if !created {
		return errors.NewAppError(errors.ErrDuplicateParticipant, "User is already a participant", nil)
	}

	return nil
}

// RespondToInvitation records accept/decline. Accepting a full event routes
// the user onto the waitlist instead of over capacity; declining frees a seat
// and triggers promotion of the next waiting user.
func (s *ParticipantService) RespondToInvitation(ctx context.Context, eventID, userID uuid.UUID, req *dto.RespondInvitationRequest) (*dto.ParticipantResponse, *errors.AppError) {
	status := entity.InvitationStatus(req.Status)
	if status != entity.InvitationStatusAccepted && status != entity.InvitationStatusDeclined {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Status must be accepted or declined", nil)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.Status.IsTerminal() {
		return nil, errors.NewAppError(errors.ErrInvalidTransition, "Event is no longer active", nil)
	}

	participant, err := s.participants.Get(ctx, eventID, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load participant", err)
	}
	if participant == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "No invitation found for this user", nil)
	}

	wasAccepted := participant.InvitationStatus == entity.InvitationStatusAccepted

	if status == entity.InvitationStatusAccepted && !wasAccepted {
		if appErr := s.acceptOrWaitlist(ctx, event, userID); appErr != nil {
			return nil, appErr
		}
	} else {
		now := time.Now()
		if _, uErr := s.participants.UpdateStatus(ctx, eventID, userID, status, &now); uErr != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update invitation", uErr)
		}
		// A freed seat goes to the waitlist head
		if wasAccepted && status == entity.InvitationStatusDeclined {
			s.promoteNext(ctx, event)
		}
	}

	updated, err := s.participants.Get(ctx, eventID, userID)
	if err != nil || updated == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to reload participant", err)
	}
	resp := dto.ToParticipantResponse(updated)
	return &resp, nil
}

// LeaveEvent removes an accepted participant and promotes from the waitlist
func (s *ParticipantService) LeaveEvent(ctx context.Context, eventID, userID uuid.UUID) *errors.AppError {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.OrganizerID == userID {
		return errors.NewAppError(errors.ErrForbidden, "The organizer cannot leave; cancel the event instead", nil)
	}

	participant, err := s.participants.Get(ctx, eventID, userID)
	if err != nil || participant == nil {
		return errors.NewAppError(errors.ErrNotFound, "Not a participant of this event", err)
	}

	wasAccepted := participant.InvitationStatus == entity.InvitationStatusAccepted
	now := time.Now()
	if _, uErr := s.participants.UpdateStatus(ctx, eventID, userID, entity.InvitationStatusDeclined, &now); uErr != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to leave event", uErr)
	}

	if wasAccepted {
		s.promoteNext(ctx, event)
	}
	return nil
}

// RespondToPromotion handles a notified waitlist user's answer. Accepting
// claims the seat; declining expires the entry and moves to the next person.
func (s *ParticipantService) RespondToPromotion(ctx context.Context, eventID, userID uuid.UUID, req *dto.WaitlistRespondRequest) *errors.AppError {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}

	entry, err := s.waitlist.Get(ctx, eventID, userID)
	if err != nil || entry == nil {
		return errors.NewAppError(errors.ErrNotFound, "No waitlist entry for this user", err)
	}
	if entry.Status != entity.WaitlistStatusNotified {
		return errors.NewAppError(errors.ErrInvalidInput, "This waitlist entry is not awaiting a response", nil)
	}

	if req.Accept {
		claimed, mErr := s.waitlist.MarkResponded(ctx, entry.ID)
		if mErr != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to update waitlist entry", mErr)
		}
		if !claimed {
			return errors.NewAppError(errors.ErrConcurrentModification, "Waitlist entry already resolved", nil)
		}
		return s.seatFromWaitlist(ctx, event, userID)
	}

	expired, mErr := s.waitlist.MarkExpired(ctx, entry.ID)
	if mErr != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to update waitlist entry", mErr)
	}
	if expired {
		s.promoteNext(ctx, event)
	}
	return nil
}

// SweepWaitlistExpiry expires notified entries whose response window lapsed
// and re-offers each freed seat down the waitlist. It also promotes waiting
// entries for any event with free capacity, so an offer skipped earlier
// (promotion lock held, crash after a seat freed) does not strand the
// waitlist forever.
func (s *ParticipantService) SweepWaitlistExpiry(ctx context.Context, now time.Time) error {
	deadline := 60 * time.Minute
	if cfg, ok := config.GetSafe(); ok {
		deadline = time.Duration(cfg.Waitlist.ResponseDeadlineMinutes) * time.Minute
	}

	stale, err := s.waitlist.ListNotifiedBefore(ctx, now.Add(-deadline))
	if err != nil {
		return err
	}

	for i := range stale {
		entry := &stale[i]
		expired, mErr := s.waitlist.MarkExpired(ctx, entry.ID)
		if mErr != nil {
			logger.Error("ParticipantService:SweepWaitlistExpiry:MarkExpired", "error", mErr, "entry_id", entry.ID)
			continue
		}
		if !expired {
			continue // responded in the meantime
		}

		event, gErr := s.events.GetByID(ctx, entry.EventID)
		if gErr != nil || event == nil {
			continue
		}
		s.promoteNext(ctx, event)
	}

	eventIDs, err := s.waitlist.ListEventIDsWithWaiting(ctx)
	if err != nil {
		return err
	}
	for _, eventID := range eventIDs {
		event, gErr := s.events.GetByID(ctx, eventID)
		if gErr != nil || event == nil || event.Status.IsTerminal() {
			continue
		}
		if event.MaxAttendees != nil {
			acceptedCount, cErr := s.participants.CountByStatus(ctx, event.ID, entity.InvitationStatusAccepted)
			if cErr != nil {
				logger.Error("ParticipantService:SweepWaitlistExpiry:Count", "error", cErr, "event_id", event.ID)
				continue
			}
			if acceptedCount >= *event.MaxAttendees {
				continue
			}
		}
		s.promoteNext(ctx, event)
	}

	return nil
}

// acceptOrWaitlist seats the user if capacity allows, otherwise appends a
// waitlist entry at the tail priority. The capacity count and the seat
// write run under the per-event lock shared with the promotion path, so
// two accepts racing for the last seat cannot both get it.
func (s *ParticipantService) acceptOrWaitlist(ctx context.Context, event *entity.Event, userID uuid.UUID) *errors.AppError {
	release, ok, err := s.locker.Acquire(ctx, promotionLockKey(event.ID), promotionLockTTL)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to acquire event lock", err)
	}
	if !ok {
		return errors.NewAppError(errors.ErrConcurrentModification, "Another update is in progress, try again", nil)
	}
	defer release()

	if event.MaxAttendees != nil {
		acceptedCount, err := s.participants.CountByStatus(ctx, event.ID, entity.InvitationStatusAccepted)
		if err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to count participants", err)
		}
		if acceptedCount >= *event.MaxAttendees {
			return s.joinWaitlist(ctx, event, userID)
		}
	}

	now := time.Now()
	if _, err := s.participants.UpdateStatus(ctx, event.ID, userID, entity.InvitationStatusAccepted, &now); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to accept invitation", err)
	}
	return nil
}

// joinWaitlist appends the user at the tail, re-opening an expired or
// responded entry instead of tripping the unique (event, user) constraint.
func (s *ParticipantService) joinWaitlist(ctx context.Context, event *entity.Event, userID uuid.UUID) *errors.AppError {
	existing, err := s.waitlist.Get(ctx, event.ID, userID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to check waitlist", err)
	}

	if existing != nil {
		if existing.Status == entity.WaitlistStatusWaiting || existing.Status == entity.WaitlistStatusNotified {
			return errors.NewAppError(errors.ErrCapacityExceeded, "Event is full; you are already on the waitlist", nil)
		}

		priority, pErr := s.waitlist.NextPriority(ctx, event.ID)
		if pErr != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to compute waitlist position", pErr)
		}
		if _, rErr := s.waitlist.Reopen(ctx, existing.ID, priority); rErr != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to rejoin waitlist", rErr)
		}
		return errors.NewAppError(errors.ErrCapacityExceeded, "Event is full; you have been added to the waitlist", nil)
	}

	priority, pErr := s.waitlist.NextPriority(ctx, event.ID)
	if pErr != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to compute waitlist position", pErr)
	}
	created, wErr := s.waitlist.Insert(ctx, &entity.EventWaitlist{
		EventID:  event.ID,
		UserID:   userID,
		Status:   entity.WaitlistStatusWaiting,
		Priority: priority,
	})
	if wErr != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to join waitlist", wErr)
	}
	if created == nil {
		return errors.NewAppError(errors.ErrCapacityExceeded, "Event is full; you are already on the waitlist", nil)
	}
	return errors.NewAppError(errors.ErrCapacityExceeded, "Event is full; you have been added to the waitlist", nil)
}

// seatFromWaitlist converts a responded waitlist entry into an accepted
// participant, re-checking capacity under the event promotion lock.
func (s *ParticipantService) seatFromWaitlist(ctx context.Context, event *entity.Event, userID uuid.UUID) *errors.AppError {
	release, ok, err := s.locker.Acquire(ctx, promotionLockKey(event.ID), promotionLockTTL)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to acquire promotion lock", err)
	}
	if !ok {
		return errors.NewAppError(errors.ErrConcurrentModification, "Another promotion is in progress, try again", nil)
	}
	defer release()

	if event.MaxAttendees != nil {
		acceptedCount, cErr := s.participants.CountByStatus(ctx, event.ID, entity.InvitationStatusAccepted)
		if cErr != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to count participants", cErr)
		}
		if acceptedCount >= *event.MaxAttendees {
			return errors.NewAppError(errors.ErrCapacityExceeded, "Event filled up before you responded", nil)
		}
	}

	now := time.Now()
	existing, gErr := s.participants.Get(ctx, event.ID, userID)
	if gErr != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to load participant", gErr)
	}
	if existing != nil {
		if _, uErr := s.participants.UpdateStatus(ctx, event.ID, userID, entity.InvitationStatusAccepted, &now); uErr != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to seat participant", uErr)
		}
	} else {
		if _, cErr := s.participants.Create(ctx, &entity.EventParticipant{
			EventID:          event.ID,
			UserID:           userID,
			InvitationStatus: entity.InvitationStatusAccepted,
			RsvpDate:         &now,
		}); cErr != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to seat participant", cErr)
		}
	}

	return nil
}

// promoteNext offers the freed seat to the lowest-priority waiting entry.
// The per-event lock plus the conditional ClaimNotify update guarantee each
// seat is offered to exactly one person.
func (s *ParticipantService) promoteNext(ctx context.Context, event *entity.Event) {
	if event.Status.IsTerminal() {
		return
	}

	release, ok, err := s.locker.Acquire(ctx, promotionLockKey(event.ID), promotionLockTTL)
	if err != nil || !ok {
		if err != nil {
			logger.Error("ParticipantService:promoteNext:Lock", "error", err, "event_id", event.ID)
		}
		return
	}
	defer release()

	next, err := s.waitlist.NextWaiting(ctx, event.ID)
	if err != nil {
		logger.Error("ParticipantService:promoteNext:NextWaiting", "error", err, "event_id", event.ID)
		return
	}
	if next == nil {
		return
	}

	claimed, err := s.waitlist.ClaimNotify(ctx, next.ID, time.Now())
	if err != nil {
		logger.Error("ParticipantService:promoteNext:ClaimNotify", "error", err, "entry_id", next.ID)
		return
	}
	if !claimed {
		return
	}

	if nErr := s.notifier.NotifyParticipant(ctx, next.UserID, event.ID,
		constants.NotificationKindWaitlistPromotion, map[string]interface{}{
			"priority": next.Priority,
		}); nErr != nil {
		logger.Error("ParticipantService:promoteNext:Notify", "error", nErr,
			"event_id", event.ID, "user_id", next.UserID)
	}
}

func promotionLockKey(eventID uuid.UUID) string {
	return fmt.Sprintf("event:%s:promotion", eventID)
}

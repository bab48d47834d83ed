package service

import (
	"context"
	"time"

	"hangout-api/core/config"
	"hangout-api/core/constants"
	"hangout-api/core/logger"
	"hangout-api/modules/event/entity"
	"hangout-api/modules/event/repository"
)

// ReminderService delivers the pre-event reminder to each accepted
// participant exactly once. Rescheduling clears the sent markers, so a
// moved event reminds everyone again at the new time.
type ReminderService struct {
	events       repository.EventRepositoryInterface
	participants repository.ParticipantRepositoryInterface
	notifier     Notifier
}

type ReminderServiceInterface interface {
	SweepReminders(ctx context.Context, now time.Time) error
}

func NewReminderService(
	events repository.EventRepositoryInterface,
	participants repository.ParticipantRepositoryInterface,
	notifier Notifier,
) *ReminderService {
	return &ReminderService{events: events, participants: participants, notifier: notifier}
}

// SweepReminders scans confirmed events whose reminder window has opened.
// ClaimReminder is a conditional update, so overlapping sweep runs cannot
// double-send.
func (s *ReminderService) SweepReminders(ctx context.Context, now time.Time) error {
	lead := 60 * time.Minute
	if cfg, ok := config.GetSafe(); ok {
		lead = time.Duration(cfg.Reminder.LeadMinutes) * time.Minute
	}

	// The window reaches lead minutes ahead; the lower bound keeps long-dead
	// rows out of every run.
	events, err := s.events.ListConfirmedScheduledBetween(ctx, now.Add(-24*time.Hour), now.Add(lead))
	if err != nil {
		return err
	}

	for i := range events {
		event := &events[i]

		instant, iErr := event.ScheduledInstant()
		if iErr != nil {
			logger.Error("ReminderService:SweepReminders:Instant", "error", iErr, "event_id", event.ID)
			continue
		}

		fireAt := instant.Add(-lead)
		if now.Before(fireAt) || now.After(instant) {
			continue
		}

		participants, pErr := s.participants.ListByStatus(ctx, event.ID, entity.InvitationStatusAccepted)
		if pErr != nil {
			logger.Error("ReminderService:SweepReminders:ListParticipants", "error", pErr, "event_id", event.ID)
			continue
		}

		for _, p := range participants {
			if p.OneHourReminderSentAt != nil {
				continue
			}
			claimed, cErr := s.participants.ClaimReminder(ctx, event.ID, p.UserID, now)
			if cErr != nil {
				logger.Error("ReminderService:SweepReminders:Claim", "error", cErr,
					"event_id", event.ID, "user_id", p.UserID)
				continue
			}
			if !claimed {
				continue
			}
			if nErr := s.notifier.NotifyParticipant(ctx, p.UserID, event.ID,
				constants.NotificationKindReminder, map[string]interface{}{
					"scheduled_at": instant,
				}); nErr != nil {
				logger.Error("ReminderService:SweepReminders:Notify", "error", nErr,
					"event_id", event.ID, "user_id", p.UserID)
			}
		}
	}

	return nil
}

package service

import (
	"context"
	"testing"
	"time"

	"hangout-api/core/constants"
	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fakeParticipantRepo) ClaimReminder(ctx context.Context, eventID, userID uuid.UUID, sentAt time.Time) (bool, error) {
	for i := range f.participants {
		p := &f.participants[i]
		if p.EventID == eventID && p.UserID == userID && p.OneHourReminderSentAt == nil {
			p.OneHourReminderSentAt = &sentAt
			return true, nil
		}
	}
	return false, nil
}

type fakeReminderEventRepo struct {
	*fakeEventRepo
}

func (f *fakeReminderEventRepo) ListConfirmedScheduledBetween(ctx context.Context, from, to time.Time) ([]entity.Event, error) {
	instant, err := f.event.ScheduledInstant()
	if err != nil {
		return nil, err
	}
	if instant.Before(from) || instant.After(to) {
		return nil, nil
	}
	return []entity.Event{f.event}, nil
}

func newReminderFixture(scheduledAt time.Time, accepted ...uuid.UUID) (*ReminderService, *fakeParticipantRepo, *fakeNotifier) {
	date := time.Date(scheduledAt.Year(), scheduledAt.Month(), scheduledAt.Day(), 0, 0, 0, 0, time.UTC)
	hhmm := scheduledAt.UTC().Format("15:04")

	events := &fakeReminderEventRepo{fakeEventRepo: &fakeEventRepo{event: entity.Event{
		ID:            uuid.New(),
		OrganizerID:   uuid.New(),
		Status:        entity.EventStatusConfirmed,
		Timezone:      "UTC",
		ScheduledDate: &date,
		ScheduledTime: &hhmm,
		Version:       1,
	}}}

	participants := &fakeParticipantRepo{}
	for _, userID := range accepted {
		participants.participants = append(participants.participants, entity.EventParticipant{
			EventID:          events.event.ID,
			UserID:           userID,
			InvitationStatus: entity.InvitationStatusAccepted,
		})
	}

	notifier := &fakeNotifier{}
	return NewReminderService(events, participants, notifier), participants, notifier
}

func TestSweepReminders_SendsOncePerParticipant(t *testing.T) {
	now := time.Date(2026, time.March, 10, 18, 30, 0, 0, time.UTC)
	svc, participants, notifier := newReminderFixture(now.Add(30*time.Minute), uuid.New(), uuid.New())

	require.NoError(t, svc.SweepReminders(context.Background(), now))
	require.Len(t, notifier.sent, 2)
	for _, n := range notifier.sent {
		assert.Equal(t, constants.NotificationKindReminder, n.Kind)
	}
	for _, p := range participants.participants {
		assert.NotNil(t, p.OneHourReminderSentAt)
	}

	// Overlapping or repeated sweeps find the claims already taken.
	require.NoError(t, svc.SweepReminders(context.Background(), now.Add(time.Minute)))
	assert.Len(t, notifier.sent, 2)
}

func TestSweepReminders_TooEarly(t *testing.T) {
	now := time.Date(2026, time.March, 10, 18, 30, 0, 0, time.UTC)
	svc, _, notifier := newReminderFixture(now.Add(3*time.Hour), uuid.New())

	require.NoError(t, svc.SweepReminders(context.Background(), now))
	assert.Empty(t, notifier.sent)
}

func TestSweepReminders_EventAlreadyStarted(t *testing.T) {
	now := time.Date(2026, time.March, 10, 18, 30, 0, 0, time.UTC)
	svc, _, notifier := newReminderFixture(now.Add(-10*time.Minute), uuid.New())

	require.NoError(t, svc.SweepReminders(context.Background(), now))
	assert.Empty(t, notifier.sent)
}

func TestSweepReminders_SkipsPendingParticipants(t *testing.T) {
	now := time.Date(2026, time.March, 10, 18, 30, 0, 0, time.UTC)
	svc, participants, notifier := newReminderFixture(now.Add(30 * time.Minute))
	participants.participants = append(participants.participants, entity.EventParticipant{
		EventID:          uuid.Nil, // never matches; list comes back empty
		UserID:           uuid.New(),
		InvitationStatus: entity.InvitationStatusPending,
	})

	require.NoError(t, svc.SweepReminders(context.Background(), now))
	assert.Empty(t, notifier.sent)
}

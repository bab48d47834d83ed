package service

import (
	"context"
	"testing"
	"time"

	"hangout-api/core/constants"
	"hangout-api/modules/event/dto"
	"hangout-api/modules/event/entity"
	"hangout-api/modules/event/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fakeParticipantRepo) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventParticipant, error) {
	var out []entity.EventParticipant
	for _, p := range f.participants {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) ResetRemindersTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) error {
	f.reminderResets++
	for i := range f.participants {
		if f.participants[i].EventID == eventID {
			f.participants[i].OneHourReminderSentAt = nil
		}
	}
	return nil
}

func (f *fakeWaitlistRepo) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventWaitlist, error) {
	var out []entity.EventWaitlist
	for _, e := range f.entries {
		if e.EventID == eventID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCheckInRepo struct {
	repository.CheckInRepositoryInterface
	noShowCalls int
}

func (f *fakeCheckInRepo) MarkNoShows(ctx context.Context, eventID uuid.UUID) (int, error) {
	f.noShowCalls++
	return 0, nil
}

type eventFixture struct {
	svc          *EventService
	events       *fakeEventRepo
	participants *fakeParticipantRepo
	waitlist     *fakeWaitlistRepo
	audits       *fakeAuditRepo
	checkIns     *fakeCheckInRepo
	notifier     *fakeNotifier
	eventID      uuid.UUID
	organizerID  uuid.UUID
}

func newEventFixture(status entity.EventStatus) *eventFixture {
	events := &fakeEventRepo{event: entity.Event{
		ID:                  uuid.New(),
		OrganizerID:         uuid.New(),
		Status:              status,
		Timezone:            "Asia/Ho_Chi_Minh",
		AcceptanceThreshold: constants.DefaultAcceptanceThreshold,
		Version:             1,
	}}
	participants := &fakeParticipantRepo{}
	waitlist := &fakeWaitlistRepo{}
	audits := &fakeAuditRepo{}
	checkIns := &fakeCheckInRepo{}
	notifier := &fakeNotifier{}
	machine := NewStateMachine(fakeTxRunner{}, events, audits)

	return &eventFixture{
		svc: NewEventService(events, &fakeOptionRepo{}, participants, waitlist,
			audits, checkIns, machine, notifier, nil),
		events:       events,
		participants: participants,
		waitlist:     waitlist,
		audits:       audits,
		checkIns:     checkIns,
		notifier:     notifier,
		eventID:      events.event.ID,
		organizerID:  events.event.OrganizerID,
	}
}

func TestRescheduleEvent_TracksHistoryAcrossReschedules(t *testing.T) {
	fix := newEventFixture(entity.EventStatusConfirmed)
	firstDate := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	firstTime := "18:00"
	fix.events.event.ScheduledDate = &firstDate
	fix.events.event.ScheduledTime = &firstTime

	sentAt := time.Now().Add(-time.Hour)
	fix.participants.participants = append(fix.participants.participants, entity.EventParticipant{
		EventID:               fix.eventID,
		UserID:                uuid.New(),
		InvitationStatus:      entity.InvitationStatusAccepted,
		OneHourReminderSentAt: &sentAt,
	})

	_, appErr := fix.svc.RescheduleEvent(context.Background(), fix.eventID, fix.organizerID,
		&dto.RescheduleEventRequest{NewDate: "2026-05-08", NewTime: "19:00", Reason: "venue closed"})
	require.Nil(t, appErr)

	event := fix.events.event
	assert.Equal(t, 1, event.RescheduleCount)
	assert.Equal(t, entity.EventStatusConfirmed, event.Status)
	require.NotNil(t, event.ScheduledDate)
	assert.Equal(t, "2026-05-08", event.ScheduledDate.Format("2006-01-02"))
	require.NotNil(t, event.ScheduledTime)
	assert.Equal(t, "19:00", *event.ScheduledTime)
	require.NotNil(t, event.PreviousScheduledDate)
	assert.Equal(t, "2026-05-01", event.PreviousScheduledDate.Format("2006-01-02"))
	require.NotNil(t, event.PreviousScheduledTime)
	assert.Equal(t, "18:00", *event.PreviousScheduledTime)
	assert.NotNil(t, event.LastRescheduledAt)

	// The sent-reminder guard clears so reminders re-fire on the new schedule
	assert.Equal(t, 1, fix.participants.reminderResets)
	assert.Nil(t, fix.participants.participants[0].OneHourReminderSentAt)

	require.Len(t, fix.notifier.sent, 1)
	assert.Equal(t, constants.NotificationKindReschedule, fix.notifier.sent[0].Kind)

	// Second reschedule without a time keeps the current one.
	_, appErr = fix.svc.RescheduleEvent(context.Background(), fix.eventID, fix.organizerID,
		&dto.RescheduleEventRequest{NewDate: "2026-05-15", Reason: "organizer travelling"})
	require.Nil(t, appErr)

	event = fix.events.event
	assert.Equal(t, 2, event.RescheduleCount)
	assert.Equal(t, "2026-05-15", event.ScheduledDate.Format("2006-01-02"))
	assert.Equal(t, "19:00", *event.ScheduledTime)
	assert.Equal(t, "2026-05-08", event.PreviousScheduledDate.Format("2006-01-02"))
	assert.Equal(t, "19:00", *event.PreviousScheduledTime)
	assert.Equal(t, 2, fix.participants.reminderResets)

	require.Len(t, fix.audits.rows, 2)
	assert.Equal(t, entity.JSONB{
		"previous_date": "2026-05-01",
		"previous_time": "18:00",
		"new_date":      "2026-05-08",
		"new_time":      "19:00",
	}, fix.audits.rows[0].AdditionalData)
	assert.Equal(t, entity.JSONB{
		"previous_date": "2026-05-08",
		"previous_time": "19:00",
		"new_date":      "2026-05-15",
		"new_time":      "19:00",
	}, fix.audits.rows[1].AdditionalData)
}

func TestRescheduleEvent_OrganizerOnly(t *testing.T) {
	fix := newEventFixture(entity.EventStatusConfirmed)

	_, appErr := fix.svc.RescheduleEvent(context.Background(), fix.eventID, uuid.New(),
		&dto.RescheduleEventRequest{NewDate: "2026-05-08", Reason: "venue closed"})

	require.NotNil(t, appErr)
	assert.Zero(t, fix.events.event.RescheduleCount)
}

// fakeCompletionEventRepo adds the completion-sweep query on top of
// fakeEventRepo.
type fakeCompletionEventRepo struct {
	*fakeEventRepo
}

func (f *fakeCompletionEventRepo) ListConfirmedScheduledDue(ctx context.Context, now time.Time) ([]entity.Event, error) {
	if f.event.Status != entity.EventStatusConfirmed || f.event.ScheduledDate == nil {
		return nil, nil
	}
	if f.event.ScheduledDate.After(now) {
		return nil, nil
	}
	return []entity.Event{f.event}, nil
}

func TestSweepCompletion_CompletesLongOverdueEvent(t *testing.T) {
	fix := newEventFixture(entity.EventStatusConfirmed)
	fix.events.event.Timezone = "UTC"
	// Scheduled a month ago: a sweep outage longer than any fixed window
	// must not strand the event in confirmed.
	oldDate := time.Now().UTC().AddDate(0, -1, 0).Truncate(24 * time.Hour)
	oldTime := "10:00"
	fix.events.event.ScheduledDate = &oldDate
	fix.events.event.ScheduledTime = &oldTime

	sweepEvents := &fakeCompletionEventRepo{fakeEventRepo: fix.events}
	svc := NewEventService(sweepEvents, &fakeOptionRepo{}, fix.participants, fix.waitlist,
		fix.audits, fix.checkIns, NewStateMachine(fakeTxRunner{}, sweepEvents, fix.audits),
		fix.notifier, nil)

	require.NoError(t, svc.SweepCompletion(context.Background(), time.Now()))

	assert.Equal(t, entity.EventStatusCompleted, fix.events.event.Status)
	assert.Equal(t, 1, fix.checkIns.noShowCalls)

	// Re-running is a no-op: the event is already terminal.
	require.NoError(t, svc.SweepCompletion(context.Background(), time.Now()))
	assert.Equal(t, 1, fix.checkIns.noShowCalls)
}

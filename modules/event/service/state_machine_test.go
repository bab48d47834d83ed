package service

import (
	"context"
	"testing"

	"hangout-api/core/errors"
	"hangout-api/modules/event/entity"
	"hangout-api/modules/event/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to entity.EventStatus
		allowed  bool
	}{
		{entity.EventStatusPlanning, entity.EventStatusVoting, true},
		{entity.EventStatusPlanning, entity.EventStatusCancelled, true},
		{entity.EventStatusPlanning, entity.EventStatusConfirmed, false},
		{entity.EventStatusVoting, entity.EventStatusConfirmed, true},
		{entity.EventStatusVoting, entity.EventStatusCancelled, true},
		{entity.EventStatusVoting, entity.EventStatusCompleted, false},
		{entity.EventStatusConfirmed, entity.EventStatusCompleted, true},
		{entity.EventStatusConfirmed, entity.EventStatusCancelled, true},
		{entity.EventStatusConfirmed, entity.EventStatusVoting, false},
		{entity.EventStatusCompleted, entity.EventStatusVoting, false},
		{entity.EventStatusCancelled, entity.EventStatusPlanning, false},
	}

	for _, c := range cases {
		assert.Equalf(t, c.allowed, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestCanReschedule(t *testing.T) {
	assert.True(t, CanReschedule(entity.EventStatusPlanning))
	assert.True(t, CanReschedule(entity.EventStatusVoting))
	assert.True(t, CanReschedule(entity.EventStatusConfirmed))
	assert.False(t, CanReschedule(entity.EventStatusCancelled))
	assert.False(t, CanReschedule(entity.EventStatusCompleted))
}

// fakeTxRunner executes the transaction body directly, without a database.
type fakeTxRunner struct{}

func (fakeTxRunner) Transact(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

// fakeEventRepo serves one event and simulates version-CAS conflicts for
// the first conflictTimes update attempts.
type fakeEventRepo struct {
	repository.EventRepositoryInterface
	event         entity.Event
	conflictTimes int
	updates       int
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	copy := f.event
	return &copy, nil
}

func (f *fakeEventRepo) UpdateWithVersion(ctx context.Context, tx *sqlx.Tx, event *entity.Event, expectedVersion int) (bool, error) {
	f.updates++
	if f.conflictTimes > 0 {
		f.conflictTimes--
		f.event.Version++ // a concurrent writer got there first
		return false, nil
	}
	if expectedVersion != f.event.Version {
		return false, nil
	}
	f.event = *event
	f.event.Version = expectedVersion + 1
	event.Version = f.event.Version
	return true, nil
}

type fakeAuditRepo struct {
	repository.AuditRepositoryInterface
	rows []entity.EventAuditLog
}

func (f *fakeAuditRepo) Insert(ctx context.Context, tx *sqlx.Tx, row *entity.EventAuditLog) error {
	f.rows = append(f.rows, *row)
	return nil
}

func newTestMachine(status entity.EventStatus) (*StateMachine, *fakeEventRepo, *fakeAuditRepo) {
	events := &fakeEventRepo{event: entity.Event{
		ID:       uuid.New(),
		Status:   status,
		Timezone: "Asia/Ho_Chi_Minh",
		Version:  1,
	}}
	audits := &fakeAuditRepo{}
	return NewStateMachine(fakeTxRunner{}, events, audits), events, audits
}

func TestTransition_AppliesAndAudits(t *testing.T) {
	machine, events, audits := newTestMachine(entity.EventStatusPlanning)

	updated, appErr := machine.Transition(context.Background(), TransitionRequest{
		EventID:   events.event.ID,
		NewStatus: entity.EventStatusVoting,
		Reason:    "voting opened",
	})

	require.Nil(t, appErr)
	assert.Equal(t, entity.EventStatusVoting, updated.Status)
	assert.Equal(t, 2, updated.Version)
	require.Len(t, audits.rows, 1)
	assert.Equal(t, entity.EventStatusPlanning, audits.rows[0].OldStatus)
	assert.Equal(t, entity.EventStatusVoting, audits.rows[0].NewStatus)
}

func TestTransition_RejectsInvalidEdge(t *testing.T) {
	machine, events, audits := newTestMachine(entity.EventStatusCompleted)

	_, appErr := machine.Transition(context.Background(), TransitionRequest{
		EventID:   events.event.ID,
		NewStatus: entity.EventStatusVoting,
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidTransition, appErr.Code)
	assert.Zero(t, events.updates)
	assert.Empty(t, audits.rows)
}

func TestTransition_RetriesThroughVersionConflict(t *testing.T) {
	machine, events, _ := newTestMachine(entity.EventStatusVoting)
	events.conflictTimes = 2

	updated, appErr := machine.Transition(context.Background(), TransitionRequest{
		EventID:   events.event.ID,
		NewStatus: entity.EventStatusConfirmed,
	})

	require.Nil(t, appErr)
	assert.Equal(t, entity.EventStatusConfirmed, updated.Status)
	assert.Equal(t, 3, events.updates)
}

func TestTransition_SurfacesExhaustedRetries(t *testing.T) {
	machine, events, _ := newTestMachine(entity.EventStatusVoting)
	events.conflictTimes = 100

	_, appErr := machine.Transition(context.Background(), TransitionRequest{
		EventID:   events.event.ID,
		NewStatus: entity.EventStatusConfirmed,
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConcurrentModification, appErr.Code)
}

func TestTransition_RescheduleKeepsStatus(t *testing.T) {
	machine, events, audits := newTestMachine(entity.EventStatusConfirmed)

	updated, appErr := machine.Transition(context.Background(), TransitionRequest{
		EventID:    events.event.ID,
		SameStatus: true,
		Reason:     "venue closed that day",
		Apply: func(e *entity.Event) *errors.AppError {
			e.RescheduleCount++
			return nil
		},
	})

	require.Nil(t, appErr)
	assert.Equal(t, entity.EventStatusConfirmed, updated.Status)
	assert.Equal(t, 1, updated.RescheduleCount)
	require.Len(t, audits.rows, 1)
	assert.Equal(t, audits.rows[0].OldStatus, audits.rows[0].NewStatus)
}

func TestTransition_RescheduleRejectedWhenTerminal(t *testing.T) {
	machine, events, _ := newTestMachine(entity.EventStatusCompleted)

	_, appErr := machine.Transition(context.Background(), TransitionRequest{
		EventID:    events.event.ID,
		SameStatus: true,
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidTransition, appErr.Code)
}

func TestTransition_ApplyRunsAgainstFreshState(t *testing.T) {
	machine, events, _ := newTestMachine(entity.EventStatusVoting)
	events.conflictTimes = 1

	applyCalls := 0
	_, appErr := machine.Transition(context.Background(), TransitionRequest{
		EventID:   events.event.ID,
		NewStatus: entity.EventStatusConfirmed,
		Apply: func(e *entity.Event) *errors.AppError {
			applyCalls++
			return nil
		},
	})

	require.Nil(t, appErr)
	assert.Equal(t, 2, applyCalls)
}

package service

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"hangout-api/core/constants"
	"hangout-api/core/errors"
	"hangout-api/core/logger"
	"hangout-api/modules/event/entity"
	"hangout-api/modules/event/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// validTransitions is the fixed event lifecycle graph.
var validTransitions = map[entity.EventStatus][]entity.EventStatus{
	entity.EventStatusPlanning:  {entity.EventStatusVoting, entity.EventStatusCancelled},
	entity.EventStatusVoting:    {entity.EventStatusConfirmed, entity.EventStatusCancelled},
	entity.EventStatusConfirmed: {entity.EventStatusCompleted, entity.EventStatusCancelled},
	entity.EventStatusCancelled: {},
	entity.EventStatusCompleted: {},
}

// reschedulableStatuses are the states from which an event's schedule may change.
var reschedulableStatuses = map[entity.EventStatus]bool{
	entity.EventStatusPlanning:  true,
	entity.EventStatusVoting:    true,
	entity.EventStatusConfirmed: true,
}

// CanTransition reports whether the status graph allows from -> to.
func CanTransition(from, to entity.EventStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanReschedule reports whether an event in the given status may be rescheduled.
func CanReschedule(status entity.EventStatus) bool {
	return reschedulableStatuses[status]
}

// TxRunner abstracts the transactional boundary of a transition.
type TxRunner interface {
	Transact(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// TransitionRequest describes one attempted transition.
type TransitionRequest struct {
	EventID   uuid.UUID
	NewStatus entity.EventStatus
	// SameStatus marks a reschedule: the status does not change but the
	// transition machinery (version CAS + audit row) still applies.
	SameStatus     bool
	ChangedBy      *uuid.UUID
	Reason         string
	AdditionalData entity.JSONB
	// Apply mutates the freshly read event before the guarded write. It runs
	// once per attempt, against fresh state, so retried attempts never apply
	// stale side effects.
	Apply func(event *entity.Event) *errors.AppError
	// TxSideEffect runs inside the transition transaction, after the status
	// write and the audit append, so it commits or rolls back with them.
	TxSideEffect func(tx *sqlx.Tx) error
}

// StateMachine owns Event.Status and executes all transitions atomically:
// the status write and the audit append commit or roll back together, and a
// version token serializes concurrent writers per event.
type StateMachine struct {
	db     TxRunner
	events repository.EventRepositoryInterface
	audits repository.AuditRepositoryInterface
}

func NewStateMachine(db TxRunner, events repository.EventRepositoryInterface, audits repository.AuditRepositoryInterface) *StateMachine {
	return &StateMachine{
		db:     db,
		events: events,
		audits: audits,
	}
}

// Transition executes req with optimistic concurrency: read, validate, apply,
// guarded write. A version conflict retries against fresh state up to
// constants.TransitionMaxRetries before surfacing ErrConcurrentModification.
func (m *StateMachine) Transition(ctx context.Context, req TransitionRequest) (*entity.Event, *errors.AppError) {
	for attempt := 0; attempt < constants.TransitionMaxRetries; attempt++ {
		event, err := m.events.GetByID(ctx, req.EventID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load event", err)
		}
		if event == nil {
			return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
		}

		oldStatus := event.Status
		if req.SameStatus {
			if !CanReschedule(oldStatus) {
				return nil, errors.NewAppError(errors.ErrInvalidTransition,
					fmt.Sprintf("Cannot reschedule event in status %s", oldStatus), nil)
			}
			req.NewStatus = oldStatus
		} else if !CanTransition(oldStatus, req.NewStatus) {
			return nil, errors.NewAppError(errors.ErrInvalidTransition,
				fmt.Sprintf("Invalid transition %s -> %s", oldStatus, req.NewStatus), nil)
		}

		if req.Apply != nil {
			if appErr := req.Apply(event); appErr != nil {
				return nil, appErr
			}
		}
		event.Status = req.NewStatus

		expectedVersion := event.Version
		var conflicted bool
		txErr := m.db.Transact(ctx, func(tx *sqlx.Tx) error {
			ok, err := m.events.UpdateWithVersion(ctx, tx, event, expectedVersion)
			if err != nil {
				return err
			}
			if !ok {
				conflicted = true
				return errVersionConflict
			}

			if err := m.audits.Insert(ctx, tx, &entity.EventAuditLog{
				EventID:        event.ID,
				OldStatus:      oldStatus,
				NewStatus:      event.Status,
				ChangedBy:      req.ChangedBy,
				Reason:         req.Reason,
				AdditionalData: req.AdditionalData,
				ChangedAt:      time.Now(),
			}); err != nil {
				return err
			}

			if req.TxSideEffect != nil {
				return req.TxSideEffect(tx)
			}
			return nil
		})
		if txErr != nil {
			if conflicted {
				logger.Warn("StateMachine:Transition:VersionConflict",
					"event_id", req.EventID, "attempt", attempt+1)
				continue
			}
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to apply transition", txErr)
		}

		logger.Info("StateMachine:Transition:Applied",
			"event_id", event.ID,
			"old_status", oldStatus,
			"new_status", event.Status,
			"reason", req.Reason)
		return event, nil
	}

	return nil, errors.NewAppError(errors.ErrConcurrentModification,
		"Event was modified concurrently, retries exhausted", nil)
}

// errVersionConflict aborts the transition transaction on a CAS miss.
var errVersionConflict = goerrors.New("version conflict")

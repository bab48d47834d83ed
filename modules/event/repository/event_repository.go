package repository

import (
	"context"
	"database/sql"
	"time"

	"hangout-api/core/database"
	"hangout-api/core/logger"
	"hangout-api/core/params"
	coreEntity "hangout-api/core/entity"
	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const eventColumns = `
	id, organizer_id, title, slug, description, event_type, status,
	scheduled_date, scheduled_time, timezone, voting_deadline, rsvp_deadline,
	max_attendees, expected_attendees, budget_per_person, acceptance_threshold,
	final_option_id, final_place_id, recurring_event_id, template_id, occurrence_key,
	reschedule_count, previous_scheduled_date, previous_scheduled_time, last_rescheduled_at,
	unresolved_notified_at, ai_analysis_started_at, ai_analysis_progress,
	version, created_at, updated_at`

type PaginatedEvents = coreEntity.Pagination[entity.Event]

// EventRepository handles event table operations
type EventRepository struct {
	DB database.Database
}

func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{DB: db}
}

// EventRepositoryInterface defines the repository contract
type EventRepositoryInterface interface {
	Create(ctx context.Context, event *entity.Event) (*entity.Event, error)
	CreateMaterialized(ctx context.Context, event *entity.Event) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	GetByOrganizerID(ctx context.Context, organizerID uuid.UUID, qp params.QueryParams) (*PaginatedEvents, error)
	UpdateWithVersion(ctx context.Context, tx *sqlx.Tx, event *entity.Event, expectedVersion int) (bool, error)
	ListVotingDeadlinePassed(ctx context.Context, now time.Time) ([]entity.Event, error)
	ListConfirmedScheduledBetween(ctx context.Context, from, to time.Time) ([]entity.Event, error)
	ListConfirmedScheduledDue(ctx context.Context, now time.Time) ([]entity.Event, error)
	ClaimUnresolvedNotification(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	SetAiAnalysisStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error)
	UpdateAiAnalysisProgress(ctx context.Context, id uuid.UUID, progress entity.JSONB) (bool, error)
	ClearAiAnalysis(ctx context.Context, id uuid.UUID) error
	ListAiAnalysisStale(ctx context.Context, cutoff time.Time) ([]entity.Event, error)
	CountByRecurringEventID(ctx context.Context, recurringEventID uuid.UUID) (int, error)
}

func (r *EventRepository) Create(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	query := `
		INSERT INTO events (organizer_id, title, slug, description, event_type, status,
			scheduled_date, scheduled_time, timezone, voting_deadline, rsvp_deadline,
			max_attendees, expected_attendees, budget_per_person, acceptance_threshold,
			recurring_event_id, template_id, occurrence_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + eventColumns

	var created entity.Event
	err := r.DB.GetContext(ctx, &created, query,
		event.OrganizerID, event.Title, event.Slug, event.Description, event.EventType, event.Status,
		event.ScheduledDate, event.ScheduledTime, event.Timezone, event.VotingDeadline, event.RsvpDeadline,
		event.MaxAttendees, event.ExpectedAttendees, event.BudgetPerPerson, event.AcceptanceThreshold,
		event.RecurringEventID, event.TemplateID, event.OccurrenceKey)
	if err != nil {
		logger.Error("EventRepository:Create", err)
		return nil, err
	}

	return &created, nil
}

// CreateMaterialized inserts a recurring occurrence; the unique occurrence_key
// makes repeated materialization runs idempotent. Returns false when the
// occurrence already exists.
func (r *EventRepository) CreateMaterialized(ctx context.Context, event *entity.Event) (bool, error) {
	query := `
		INSERT INTO events (organizer_id, title, slug, description, event_type, status,
			scheduled_date, scheduled_time, timezone,
			max_attendees, expected_attendees, budget_per_person, acceptance_threshold,
			recurring_event_id, template_id, occurrence_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (occurrence_key) DO NOTHING`

	res, err := r.DB.SQLx().ExecContext(ctx, query,
		event.OrganizerID, event.Title, event.Slug, event.Description, event.EventType, event.Status,
		event.ScheduledDate, event.ScheduledTime, event.Timezone,
		event.MaxAttendees, event.ExpectedAttendees, event.BudgetPerPerson, event.AcceptanceThreshold,
		event.RecurringEventID, event.TemplateID, event.OccurrenceKey)
	if err != nil {
		logger.Error("EventRepository:CreateMaterialized", err)
		return false, err
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var event entity.Event
	err := r.DB.GetContext(ctx, &event, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetByID", err)
		return nil, err
	}

	return &event, nil
}

func (r *EventRepository) GetByOrganizerID(ctx context.Context, organizerID uuid.UUID, qp params.QueryParams) (*PaginatedEvents, error) {
	offset := (qp.PageNumber - 1) * qp.PageSize

	var totalItems int
	err := r.DB.GetContext(ctx, &totalItems, `SELECT COUNT(*) FROM events WHERE organizer_id = $1`, organizerID)
	if err != nil {
		logger.Error("EventRepository:GetByOrganizerID:Count", err)
		return nil, err
	}

	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE organizer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var events []entity.Event
	err = r.DB.SelectContext(ctx, &events, query, organizerID, qp.PageSize, offset)
	if err != nil {
		logger.Error("EventRepository:GetByOrganizerID:Select", err)
		return nil, err
	}

	return &PaginatedEvents{
		Items:      events,
		TotalItems: totalItems,
		PageNumber: qp.PageNumber,
		PageSize:   qp.PageSize,
	}, nil
}

// UpdateWithVersion applies a full state update guarded by the version token.
// Returns false when the row was modified concurrently (version mismatch);
// the caller re-reads and retries.
func (r *EventRepository) UpdateWithVersion(ctx context.Context, tx *sqlx.Tx, event *entity.Event, expectedVersion int) (bool, error) {
	query := `
		UPDATE events SET
			status = $3, title = $4, description = $5,
			scheduled_date = $6, scheduled_time = $7, timezone = $8,
			voting_deadline = $9, rsvp_deadline = $10, max_attendees = $11,
			acceptance_threshold = $12, final_option_id = $13, final_place_id = $14,
			reschedule_count = $15, previous_scheduled_date = $16, previous_scheduled_time = $17,
			last_rescheduled_at = $18, unresolved_notified_at = $19,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2`

	var res sql.Result
	var err error
	args := []any{
		event.ID, expectedVersion,
		event.Status, event.Title, event.Description,
		event.ScheduledDate, event.ScheduledTime, event.Timezone,
		event.VotingDeadline, event.RsvpDeadline, event.MaxAttendees,
		event.AcceptanceThreshold, event.FinalOptionID, event.FinalPlaceID,
		event.RescheduleCount, event.PreviousScheduledDate, event.PreviousScheduledTime,
		event.LastRescheduledAt, event.UnresolvedNotifiedAt,
	}
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, args...)
	} else {
		res, err = r.DB.SQLx().ExecContext(ctx, query, args...)
	}
	if err != nil {
		logger.Error("EventRepository:UpdateWithVersion", err)
		return false, err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return false, nil
	}

	event.Version = expectedVersion + 1
	return true, nil
}

func (r *EventRepository) ListVotingDeadlinePassed(ctx context.Context, now time.Time) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1 AND voting_deadline IS NOT NULL AND voting_deadline <= $2`

	var events []entity.Event
	err := r.DB.SelectContext(ctx, &events, query, entity.EventStatusVoting, now)
	if err != nil {
		logger.Error("EventRepository:ListVotingDeadlinePassed", err)
		return nil, err
	}
	return events, nil
}

// ListConfirmedScheduledBetween returns confirmed events whose scheduled date
// falls inside [from, to]. The reminder and completion sweeps narrow by the
// exact local-time instant in Go.
func (r *EventRepository) ListConfirmedScheduledBetween(ctx context.Context, from, to time.Time) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1 AND scheduled_date IS NOT NULL
		  AND scheduled_date >= $2::date AND scheduled_date <= $3::date`

	var events []entity.Event
	err := r.DB.SelectContext(ctx, &events, query, entity.EventStatusConfirmed, from, to)
	if err != nil {
		logger.Error("EventRepository:ListConfirmedScheduledBetween", err)
		return nil, err
	}
	return events, nil
}

// ListConfirmedScheduledDue returns every confirmed event whose scheduled
// date is in the past, with no lower bound: an event stranded by a long
// worker outage must still complete once sweeps resume.
func (r *EventRepository) ListConfirmedScheduledDue(ctx context.Context, now time.Time) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1 AND scheduled_date IS NOT NULL
		  AND scheduled_date <= $2::date`

	var events []entity.Event
	err := r.DB.SelectContext(ctx, &events, query, entity.EventStatusConfirmed, now)
	if err != nil {
		logger.Error("EventRepository:ListConfirmedScheduledDue", err)
		return nil, err
	}
	return events, nil
}

// ClaimUnresolvedNotification marks the AcceptanceUnresolved notification as
// sent; the NULL guard makes repeated deadline sweeps raise it at most once.
func (r *EventRepository) ClaimUnresolvedNotification(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE events SET unresolved_notified_at = $2, updated_at = NOW()
		WHERE id = $1 AND unresolved_notified_at IS NULL`

	res, err := r.DB.SQLx().ExecContext(ctx, query, id, now)
	if err != nil {
		logger.Error("EventRepository:ClaimUnresolvedNotification", err)
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *EventRepository) SetAiAnalysisStarted(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	query := `
		UPDATE events SET ai_analysis_started_at = $2, ai_analysis_progress = NULL, updated_at = NOW()
		WHERE id = $1 AND ai_analysis_started_at IS NULL`

	res, err := r.DB.SQLx().ExecContext(ctx, query, id, startedAt)
	if err != nil {
		logger.Error("EventRepository:SetAiAnalysisStarted", err)
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *EventRepository) UpdateAiAnalysisProgress(ctx context.Context, id uuid.UUID, progress entity.JSONB) (bool, error) {
	query := `
		UPDATE events SET ai_analysis_progress = $2, updated_at = NOW()
		WHERE id = $1 AND ai_analysis_started_at IS NOT NULL`

	res, err := r.DB.SQLx().ExecContext(ctx, query, id, progress)
	if err != nil {
		logger.Error("EventRepository:UpdateAiAnalysisProgress", err)
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *EventRepository) ClearAiAnalysis(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE events SET ai_analysis_started_at = NULL, updated_at = NOW() WHERE id = $1`
	if err := r.DB.ExecContext(ctx, query, id); err != nil {
		logger.Error("EventRepository:ClearAiAnalysis", err)
		return err
	}
	return nil
}

// ListAiAnalysisStale returns events whose analysis started before cutoff and
// has received no progress update since.
func (r *EventRepository) ListAiAnalysisStale(ctx context.Context, cutoff time.Time) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE ai_analysis_started_at IS NOT NULL
		  AND ai_analysis_started_at <= $1
		  AND ai_analysis_progress IS NULL`

	var events []entity.Event
	err := r.DB.SelectContext(ctx, &events, query, cutoff)
	if err != nil {
		logger.Error("EventRepository:ListAiAnalysisStale", err)
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) CountByRecurringEventID(ctx context.Context, recurringEventID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM events WHERE recurring_event_id = $1`
	err := r.DB.GetContext(ctx, &count, query, recurringEventID)
	if err != nil {
		logger.Error("EventRepository:CountByRecurringEventID", err)
		return 0, err
	}
	return count, nil
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"hangout-api/core/database"
	"hangout-api/core/logger"
	"hangout-api/modules/recurring/entity"

	"github.com/google/uuid"
)

const recurringColumns = `
	id, organizer_id, title, event_type, pattern, days_of_week, day_of_month,
	month, day_of_year, start_date, end_date, occurrence_count,
	auto_create_events, days_in_advance, scheduled_time, timezone,
	expected_attendees, budget_per_person, last_generated_at,
	created_at, updated_at`

// RecurringRepository handles recurring event template persistence
type RecurringRepository struct {
	DB database.Database
}

func NewRecurringRepository(db database.Database) *RecurringRepository {
	return &RecurringRepository{DB: db}
}

type RecurringRepositoryInterface interface {
	Create(ctx context.Context, tmpl *entity.RecurringEvent) (*entity.RecurringEvent, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.RecurringEvent, error)
	ListByOrganizerID(ctx context.Context, organizerID uuid.UUID) ([]entity.RecurringEvent, error)
	ListActive(ctx context.Context, now time.Time) ([]entity.RecurringEvent, error)
	SetLastGeneratedAt(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

func (r *RecurringRepository) Create(ctx context.Context, tmpl *entity.RecurringEvent) (*entity.RecurringEvent, error) {
	query := `
		INSERT INTO recurring_events (
			organizer_id, title, event_type, pattern, days_of_week, day_of_month,
			month, day_of_year, start_date, end_date, occurrence_count,
			auto_create_events, days_in_advance, scheduled_time, timezone,
			expected_attendees, budget_per_person
		) VALUES (
			:organizer_id, :title, :event_type, :pattern, :days_of_week, :day_of_month,
			:month, :day_of_year, :start_date, :end_date, :occurrence_count,
			:auto_create_events, :days_in_advance, :scheduled_time, :timezone,
			:expected_attendees, :budget_per_person
		)
		RETURNING ` + recurringColumns

	rows, err := r.DB.NamedQueryContext(ctx, query, tmpl)
	if err != nil {
		logger.Error("RecurringRepo:Create", err)
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		var created entity.RecurringEvent
		if err := rows.StructScan(&created); err != nil {
			logger.Error("RecurringRepo:Create:Scan", err)
			return nil, err
		}
		return &created, nil
	}
	return nil, sql.ErrNoRows
}

func (r *RecurringRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.RecurringEvent, error) {
	var tmpl entity.RecurringEvent
	query := `SELECT ` + recurringColumns + ` FROM recurring_events WHERE id = $1`

	err := r.DB.GetContext(ctx, &tmpl, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Error("RecurringRepo:GetByID", err)
		return nil, err
	}
	return &tmpl, nil
}

func (r *RecurringRepository) ListByOrganizerID(ctx context.Context, organizerID uuid.UUID) ([]entity.RecurringEvent, error) {
	var templates []entity.RecurringEvent
	query := `SELECT ` + recurringColumns + `
		FROM recurring_events
		WHERE organizer_id = $1
		ORDER BY created_at DESC`

	if err := r.DB.SelectContext(ctx, &templates, query, organizerID); err != nil {
		logger.Error("RecurringRepo:ListByOrganizerID", err)
		return nil, err
	}
	return templates, nil
}

// ListActive returns templates that can still generate occurrences at now
func (r *RecurringRepository) ListActive(ctx context.Context, now time.Time) ([]entity.RecurringEvent, error) {
	var templates []entity.RecurringEvent
	query := `SELECT ` + recurringColumns + `
		FROM recurring_events
		WHERE auto_create_events = TRUE
		AND (end_date IS NULL OR end_date >= $1)
		ORDER BY created_at ASC`

	if err := r.DB.SelectContext(ctx, &templates, query, now); err != nil {
		logger.Error("RecurringRepo:ListActive", err)
		return nil, err
	}
	return templates, nil
}

func (r *RecurringRepository) SetLastGeneratedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE recurring_events SET last_generated_at = $2, updated_at = NOW() WHERE id = $1`
	if err := r.DB.ExecContext(ctx, query, id, at); err != nil {
		logger.Error("RecurringRepo:SetLastGeneratedAt", err)
		return err
	}
	return nil
}

func (r *RecurringRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.DB.NamedExecContext(ctx,
		`DELETE FROM recurring_events WHERE id = :id`,
		map[string]interface{}{"id": id})
	if err != nil {
		logger.Error("RecurringRepo:Delete", err)
		return false, err
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

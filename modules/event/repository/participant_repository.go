package repository

import (
	"context"
	"database/sql"
	"time"

	"hangout-api/core/database"
	"hangout-api/core/logger"
	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ParticipantRepository handles event_participants table operations
type ParticipantRepository struct {
	DB database.Database
}

func NewParticipantRepository(db database.Database) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

type ParticipantRepositoryInterface interface {
	Create(ctx context.Context, p *entity.EventParticipant) (bool, error)
	Get(ctx context.Context, eventID, userID uuid.UUID) (*entity.EventParticipant, error)
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventParticipant, error)
	ListByStatus(ctx context.Context, eventID uuid.UUID, status entity.InvitationStatus) ([]entity.EventParticipant, error)
	CountByStatus(ctx context.Context, eventID uuid.UUID, status entity.InvitationStatus) (int, error)
	UpdateStatus(ctx context.Context, eventID, userID uuid.UUID, status entity.InvitationStatus, rsvpDate *time.Time) (bool, error)
	ClaimReminder(ctx context.Context, eventID, userID uuid.UUID, sentAt time.Time) (bool, error)
	ResetRemindersTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) error
}

// Create inserts a participant row; unique (event_id, user_id) makes the call
// an idempotent no-op for an existing member. Returns false on conflict.
func (r *ParticipantRepository) Create(ctx context.Context, p *entity.EventParticipant) (bool, error) {
	query := `
		INSERT INTO event_participants (event_id, user_id, invitation_status, rsvp_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id) DO NOTHING`

	res, err := r.DB.SQLx().ExecContext(ctx, query,
		p.EventID, p.UserID, p.InvitationStatus, p.RsvpDate)
	if err != nil {
		logger.Error("ParticipantRepository:Create", err)
		return false, err
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// ResetRemindersTx clears the reminder guard for every participant of an
// event, inside the reschedule transaction, so reminders re-fire against
// the new schedule.
func (r *ParticipantRepository) ResetRemindersTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) error {
	query := `
		UPDATE event_participants
		SET one_hour_reminder_sent_at = NULL, updated_at = NOW()
		WHERE event_id = $1 AND one_hour_reminder_sent_at IS NOT NULL`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, eventID)
	} else {
		err = r.DB.ExecContext(ctx, query, eventID)
	}
	if err != nil {
		logger.Error("ParticipantRepository:ResetRemindersTx", err)
		return err
	}
	return nil
}

func (r *ParticipantRepository) Get(ctx context.Context, eventID, userID uuid.UUID) (*entity.EventParticipant, error) {
	query := `
		SELECT id, event_id, user_id, invitation_status, rsvp_date,
			one_hour_reminder_sent_at, created_at, updated_at
		FROM event_participants
		WHERE event_id = $1 AND user_id = $2`

	var p entity.EventParticipant
	err := r.DB.GetContext(ctx, &p, query, eventID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ParticipantRepository:Get", err)
		return nil, err
	}

	return &p, nil
}

func (r *ParticipantRepository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventParticipant, error) {
	query := `
		SELECT id, event_id, user_id, invitation_status, rsvp_date,
			one_hour_reminder_sent_at, created_at, updated_at
		FROM event_participants
		WHERE event_id = $1
		ORDER BY created_at ASC`

	var participants []entity.EventParticipant
	err := r.DB.SelectContext(ctx, &participants, query, eventID)
	if err != nil {
		logger.Error("ParticipantRepository:ListByEventID", err)
		return nil, err
	}

	return participants, nil
}

func (r *ParticipantRepository) ListByStatus(ctx context.Context, eventID uuid.UUID, status entity.InvitationStatus) ([]entity.EventParticipant, error) {
	query := `
		SELECT id, event_id, user_id, invitation_status, rsvp_date,
			one_hour_reminder_sent_at, created_at, updated_at
		FROM event_participants
		WHERE event_id = $1 AND invitation_status = $2
		ORDER BY created_at ASC`

	var participants []entity.EventParticipant
	err := r.DB.SelectContext(ctx, &participants, query, eventID, status)
	if err != nil {
		logger.Error("ParticipantRepository:ListByStatus", err)
		return nil, err
	}

	return participants, nil
}

func (r *ParticipantRepository) CountByStatus(ctx context.Context, eventID uuid.UUID, status entity.InvitationStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM event_participants WHERE event_id = $1 AND invitation_status = $2`
	err := r.DB.GetContext(ctx, &count, query, eventID, status)
	if err != nil {
		logger.Error("ParticipantRepository:CountByStatus", err)
		return 0, err
	}
	return count, nil
}

func (r *ParticipantRepository) UpdateStatus(ctx context.Context, eventID, userID uuid.UUID, status entity.InvitationStatus, rsvpDate *time.Time) (bool, error) {
	query := `
		UPDATE event_participants
		SET invitation_status = $3, rsvp_date = $4, updated_at = NOW()
		WHERE event_id = $1 AND user_id = $2`

	res, err := r.DB.SQLx().ExecContext(ctx, query, eventID, userID, status, rsvpDate)
	if err != nil {
		logger.Error("ParticipantRepository:UpdateStatus", err)
		return false, err
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// ClaimReminder sets the one-hour-reminder timestamp if and only if it is
// still null, so concurrent reminder sweeps send at most one reminder.
func (r *ParticipantRepository) ClaimReminder(ctx context.Context, eventID, userID uuid.UUID, sentAt time.Time) (bool, error) {
	query := `
		UPDATE event_participants
		SET one_hour_reminder_sent_at = $3, updated_at = NOW()
		WHERE event_id = $1 AND user_id = $2 AND one_hour_reminder_sent_at IS NULL`

	res, err := r.DB.SQLx().ExecContext(ctx, query, eventID, userID, sentAt)
	if err != nil {
		logger.Error("ParticipantRepository:ClaimReminder", err)
		return false, err
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

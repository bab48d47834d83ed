package repository

import (
	"context"

	"hangout-api/core/database"
	"hangout-api/core/logger"
	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AuditRepository appends immutable status-change records. Rows are never
// updated or deleted.
type AuditRepository struct {
	DB database.Database
}

func NewAuditRepository(db database.Database) *AuditRepository {
	return &AuditRepository{DB: db}
}

type AuditRepositoryInterface interface {
	Insert(ctx context.Context, tx *sqlx.Tx, row *entity.EventAuditLog) error
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventAuditLog, error)
}

// Insert writes one audit row, inside tx when the write is part of a
// transition transaction.
func (r *AuditRepository) Insert(ctx context.Context, tx *sqlx.Tx, row *entity.EventAuditLog) error {
	query := `
		INSERT INTO event_audit_log (event_id, old_status, new_status, changed_by, reason, additional_data)
		VALUES ($1, $2, $3, $4, $5, $6)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query,
			row.EventID, row.OldStatus, row.NewStatus, row.ChangedBy, row.Reason, row.AdditionalData)
	} else {
		err = r.DB.ExecContext(ctx, query,
			row.EventID, row.OldStatus, row.NewStatus, row.ChangedBy, row.Reason, row.AdditionalData)
	}
	if err != nil {
		logger.Error("AuditRepository:Insert", err)
		return err
	}
	return nil
}

func (r *AuditRepository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventAuditLog, error) {
	query := `
		SELECT id, event_id, old_status, new_status, changed_by, reason, additional_data, changed_at
		FROM event_audit_log
		WHERE event_id = $1
		ORDER BY changed_at ASC`

	var rows []entity.EventAuditLog
	err := r.DB.SelectContext(ctx, &rows, query, eventID)
	if err != nil {
		logger.Error("AuditRepository:ListByEventID", err)
		return nil, err
	}

	return rows, nil
}

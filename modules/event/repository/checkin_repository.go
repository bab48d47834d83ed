package repository

import (
	"context"

	"hangout-api/core/database"
	"hangout-api/core/logger"
	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
)

// CheckInRepository handles event_check_ins table operations
type CheckInRepository struct {
	DB database.Database
}

func NewCheckInRepository(db database.Database) *CheckInRepository {
	return &CheckInRepository{DB: db}
}

type CheckInRepositoryInterface interface {
	Insert(ctx context.Context, c *entity.EventCheckIn) (bool, error)
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventCheckIn, error)
	MarkNoShows(ctx context.Context, eventID uuid.UUID) (int, error)
}

// Insert records a check-in; unique (event_id, user_id) makes repeated
// check-ins an idempotent no-op. Returns false on conflict.
func (r *CheckInRepository) Insert(ctx context.Context, c *entity.EventCheckIn) (bool, error) {
	query := `
		INSERT INTO event_check_ins (event_id, user_id, method, lat, lng, checked_in_at, is_no_show)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id, user_id) DO NOTHING`

	res, err := r.DB.SQLx().ExecContext(ctx, query,
		c.EventID, c.UserID, c.Method, c.Lat, c.Lng, c.CheckedInAt, c.IsNoShow)
	if err != nil {
		logger.Error("CheckInRepository:Insert", err)
		return false, err
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *CheckInRepository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventCheckIn, error) {
	query := `
		SELECT id, event_id, user_id, method, lat, lng, checked_in_at, is_no_show
		FROM event_check_ins
		WHERE event_id = $1
		ORDER BY checked_in_at ASC`

	var checkIns []entity.EventCheckIn
	err := r.DB.SelectContext(ctx, &checkIns, query, eventID)
	if err != nil {
		logger.Error("CheckInRepository:ListByEventID", err)
		return nil, err
	}

	return checkIns, nil
}

// MarkNoShows writes a no-show check-in row for every accepted participant
// without an attendance record. Called when the event completes.
func (r *CheckInRepository) MarkNoShows(ctx context.Context, eventID uuid.UUID) (int, error) {
	query := `
		INSERT INTO event_check_ins (event_id, user_id, method, checked_in_at, is_no_show)
		SELECT p.event_id, p.user_id, 'manual', NOW(), true
		FROM event_participants p
		WHERE p.event_id = $1 AND p.invitation_status = 'accepted'
		ON CONFLICT (event_id, user_id) DO NOTHING`

	res, err := r.DB.SQLx().ExecContext(ctx, query, eventID)
	if err != nil {
		logger.Error("CheckInRepository:MarkNoShows", err)
		return 0, err
	}

	affected, _ := res.RowsAffected()
	return int(affected), nil
}

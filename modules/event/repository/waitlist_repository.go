package repository

import (
	"context"
	"database/sql"
	"time"

	"hangout-api/core/database"
	"hangout-api/core/logger"
	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
)

// WaitlistRepository handles event_waitlist table operations
type WaitlistRepository struct {
	DB database.Database
}

func NewWaitlistRepository(db database.Database) *WaitlistRepository {
	return &WaitlistRepository{DB: db}
}

type WaitlistRepositoryInterface interface {
	Insert(ctx context.Context, w *entity.EventWaitlist) (*entity.EventWaitlist, error)
	Get(ctx context.Context, eventID, userID uuid.UUID) (*entity.EventWaitlist, error)
	Reopen(ctx context.Context, id uuid.UUID, priority int) (bool, error)
	NextPriority(ctx context.Context, eventID uuid.UUID) (int, error)
	NextWaiting(ctx context.Context, eventID uuid.UUID) (*entity.EventWaitlist, error)
	ClaimNotify(ctx context.Context, id uuid.UUID, notifiedAt time.Time) (bool, error)
	MarkResponded(ctx context.Context, id uuid.UUID) (bool, error)
	MarkExpired(ctx context.Context, id uuid.UUID) (bool, error)
	ListNotifiedBefore(ctx context.Context, cutoff time.Time) ([]entity.EventWaitlist, error)
	ListEventIDsWithWaiting(ctx context.Context) ([]uuid.UUID, error)
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventWaitlist, error)
}

// Insert appends a waitlist entry. A second insert for the same
// (event, user) pair hits the unique constraint and returns nil instead
// of an error, so callers can report "already waitlisted".
func (r *WaitlistRepository) Insert(ctx context.Context, w *entity.EventWaitlist) (*entity.EventWaitlist, error) {
	query := `
		INSERT INTO event_waitlist (event_id, user_id, status, priority)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING id, event_id, user_id, status, priority, joined_at, notified_at`

	var created entity.EventWaitlist
	err := r.DB.GetContext(ctx, &created, query, w.EventID, w.UserID, w.Status, w.Priority)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("WaitlistRepository:Insert", err)
		return nil, err
	}

	return &created, nil
}

// Reopen puts an expired or responded entry back at the tail of the
// waitlist. Active entries are left untouched.
func (r *WaitlistRepository) Reopen(ctx context.Context, id uuid.UUID, priority int) (bool, error) {
	query := `
		UPDATE event_waitlist
		SET status = $2, priority = $3, joined_at = now(), notified_at = NULL
		WHERE id = $1 AND status IN ($4, $5)`

	res, err := r.DB.SQLx().ExecContext(ctx, query, id, entity.WaitlistStatusWaiting, priority,
		entity.WaitlistStatusExpired, entity.WaitlistStatusResponded)
	if err != nil {
		logger.Error("WaitlistRepository:Reopen", err)
		return false, err
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *WaitlistRepository) Get(ctx context.Context, eventID, userID uuid.UUID) (*entity.EventWaitlist, error) {
	query := `
		SELECT id, event_id, user_id, status, priority, joined_at, notified_at
		FROM event_waitlist
		WHERE event_id = $1 AND user_id = $2`

	var w entity.EventWaitlist
	err := r.DB.GetContext(ctx, &w, query, eventID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("WaitlistRepository:Get", err)
		return nil, err
	}

	return &w, nil
}

func (r *WaitlistRepository) NextPriority(ctx context.Context, eventID uuid.UUID) (int, error) {
	var max sql.NullInt64
	query := `SELECT MAX(priority) FROM event_waitlist WHERE event_id = $1`
	err := r.DB.GetContext(ctx, &max, query, eventID)
	if err != nil {
		logger.Error("WaitlistRepository:NextPriority", err)
		return 0, err
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

// NextWaiting returns the lowest-priority waiting entry, or nil when the
// waitlist has no promotion candidate.
func (r *WaitlistRepository) NextWaiting(ctx context.Context, eventID uuid.UUID) (*entity.EventWaitlist, error) {
	query := `
		SELECT id, event_id, user_id, status, priority, joined_at, notified_at
		FROM event_waitlist
		WHERE event_id = $1 AND status = $2
		ORDER BY priority ASC
		LIMIT 1`

	var w entity.EventWaitlist
	err := r.DB.GetContext(ctx, &w, query, eventID, entity.WaitlistStatusWaiting)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("WaitlistRepository:NextWaiting", err)
		return nil, err
	}

	return &w, nil
}

// ClaimNotify promotes a waiting entry to notified; the status guard makes
// the move happen exactly once under concurrent promoters.
func (r *WaitlistRepository) ClaimNotify(ctx context.Context, id uuid.UUID, notifiedAt time.Time) (bool, error) {
	query := `
		UPDATE event_waitlist SET status = $2, notified_at = $3
		WHERE id = $1 AND status = $4`

	res, err := r.DB.SQLx().ExecContext(ctx, query, id, entity.WaitlistStatusNotified, notifiedAt, entity.WaitlistStatusWaiting)
	if err != nil {
		logger.Error("WaitlistRepository:ClaimNotify", err)
		return false, err
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *WaitlistRepository) MarkResponded(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE event_waitlist SET status = $2 WHERE id = $1 AND status = $3`
	res, err := r.DB.SQLx().ExecContext(ctx, query, id, entity.WaitlistStatusResponded, entity.WaitlistStatusNotified)
	if err != nil {
		logger.Error("WaitlistRepository:MarkResponded", err)
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *WaitlistRepository) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE event_waitlist SET status = $2 WHERE id = $1 AND status = $3`
	res, err := r.DB.SQLx().ExecContext(ctx, query, id, entity.WaitlistStatusExpired, entity.WaitlistStatusNotified)
	if err != nil {
		logger.Error("WaitlistRepository:MarkExpired", err)
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *WaitlistRepository) ListNotifiedBefore(ctx context.Context, cutoff time.Time) ([]entity.EventWaitlist, error) {
	query := `
		SELECT id, event_id, user_id, status, priority, joined_at, notified_at
		FROM event_waitlist
		WHERE status = $1 AND notified_at IS NOT NULL AND notified_at <= $2
		ORDER BY notified_at ASC`

	var entries []entity.EventWaitlist
	err := r.DB.SelectContext(ctx, &entries, query, entity.WaitlistStatusNotified, cutoff)
	if err != nil {
		logger.Error("WaitlistRepository:ListNotifiedBefore", err)
		return nil, err
	}

	return entries, nil
}

// ListEventIDsWithWaiting returns every event that still has at least one
// waiting entry; the expiry sweep uses it to re-offer seats that a missed
// promotion left unclaimed.
func (r *WaitlistRepository) ListEventIDsWithWaiting(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT event_id FROM event_waitlist WHERE status = $1`

	var ids []uuid.UUID
	err := r.DB.SelectContext(ctx, &ids, query, entity.WaitlistStatusWaiting)
	if err != nil {
		logger.Error("WaitlistRepository:ListEventIDsWithWaiting", err)
		return nil, err
	}

	return ids, nil
}

func (r *WaitlistRepository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventWaitlist, error) {
	query := `
		SELECT id, event_id, user_id, status, priority, joined_at, notified_at
		FROM event_waitlist
		WHERE event_id = $1
		ORDER BY priority ASC`

	var entries []entity.EventWaitlist
	err := r.DB.SelectContext(ctx, &entries, query, eventID)
	if err != nil {
		logger.Error("WaitlistRepository:ListByEventID", err)
		return nil, err
	}

	return entries, nil
}

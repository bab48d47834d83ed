package repository

import (
	"context"

	"hangout-api/core/database"
	"hangout-api/core/logger"
	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
)

// VoteRepository handles event_votes table operations
type VoteRepository struct {
	DB database.Database
}

func NewVoteRepository(db database.Database) *VoteRepository {
	return &VoteRepository{DB: db}
}

type VoteRepositoryInterface interface {
	Insert(ctx context.Context, vote *entity.EventVote) (bool, error)
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventVote, error)
	CountDistinctVoters(ctx context.Context, eventID uuid.UUID) (int, error)
}

// Insert records a vote; the (event_id, option_id, voter_id) unique constraint
// rejects duplicates. Returns false when the voter already voted on the option.
func (r *VoteRepository) Insert(ctx context.Context, vote *entity.EventVote) (bool, error) {
	query := `
		INSERT INTO event_votes (event_id, option_id, voter_id, vote_value, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, option_id, voter_id) DO NOTHING`

	res, err := r.DB.SQLx().ExecContext(ctx, query,
		vote.EventID, vote.OptionID, vote.VoterID, vote.VoteValue, vote.Comment)
	if err != nil {
		logger.Error("VoteRepository:Insert", err)
		return false, err
	}

	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *VoteRepository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventVote, error) {
	query := `
		SELECT id, event_id, option_id, voter_id, vote_value, comment, created_at
		FROM event_votes
		WHERE event_id = $1
		ORDER BY created_at ASC`

	var votes []entity.EventVote
	err := r.DB.SelectContext(ctx, &votes, query, eventID)
	if err != nil {
		logger.Error("VoteRepository:ListByEventID", err)
		return nil, err
	}

	return votes, nil
}

func (r *VoteRepository) CountDistinctVoters(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(DISTINCT voter_id) FROM event_votes WHERE event_id = $1`
	err := r.DB.GetContext(ctx, &count, query, eventID)
	if err != nil {
		logger.Error("VoteRepository:CountDistinctVoters", err)
		return 0, err
	}
	return count, nil
}

package repository

import (
	"context"
	"database/sql"

	"hangout-api/core/database"
	"hangout-api/core/logger"
	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
)

// OptionRepository handles event_place_options table operations
type OptionRepository struct {
	DB database.Database
}

func NewOptionRepository(db database.Database) *OptionRepository {
	return &OptionRepository{DB: db}
}

type OptionRepositoryInterface interface {
	Create(ctx context.Context, option *entity.EventPlaceOption) (*entity.EventPlaceOption, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.EventPlaceOption, error)
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventPlaceOption, error)
	UpdateAiScore(ctx context.Context, id uuid.UUID, score float64, pros, cons entity.StringList) error
}

func (r *OptionRepository) Create(ctx context.Context, option *entity.EventPlaceOption) (*entity.EventPlaceOption, error) {
	query := `
		INSERT INTO event_place_options (event_id, place_id, external_venue, ai_score, pros, cons,
			estimated_cost_per_person, added_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, event_id, place_id, external_venue, ai_score, pros, cons,
			estimated_cost_per_person, added_by, added_at`

	var created entity.EventPlaceOption
	err := r.DB.GetContext(ctx, &created, query,
		option.EventID, option.PlaceID, option.External, option.AiScore,
		option.Pros, option.Cons, option.EstimatedCostPerPerson, option.AddedBy)
	if err != nil {
		logger.Error("OptionRepository:Create", err)
		return nil, err
	}

	return &created, nil
}

func (r *OptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.EventPlaceOption, error) {
	query := `
		SELECT id, event_id, place_id, external_venue, ai_score, pros, cons,
			estimated_cost_per_person, added_by, added_at
		FROM event_place_options WHERE id = $1`

	var option entity.EventPlaceOption
	err := r.DB.GetContext(ctx, &option, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("OptionRepository:GetByID", err)
		return nil, err
	}

	return &option, nil
}

func (r *OptionRepository) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventPlaceOption, error) {
	query := `
		SELECT id, event_id, place_id, external_venue, ai_score, pros, cons,
			estimated_cost_per_person, added_by, added_at
		FROM event_place_options
		WHERE event_id = $1
		ORDER BY added_at ASC`

	var options []entity.EventPlaceOption
	err := r.DB.SelectContext(ctx, &options, query, eventID)
	if err != nil {
		logger.Error("OptionRepository:ListByEventID", err)
		return nil, err
	}

	return options, nil
}

func (r *OptionRepository) UpdateAiScore(ctx context.Context, id uuid.UUID, score float64, pros, cons entity.StringList) error {
	query := `UPDATE event_place_options SET ai_score = $2, pros = $3, cons = $4 WHERE id = $1`
	if err := r.DB.ExecContext(ctx, query, id, score, pros, cons); err != nil {
		logger.Error("OptionRepository:UpdateAiScore", err)
		return err
	}
	return nil
}

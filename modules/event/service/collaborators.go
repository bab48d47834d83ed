package service

import (
	"context"

	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
)

// Notifier delivers participant-facing notifications. Delivery mechanics
// (email, push) live outside the engine; calls are fire-and-forget.
type Notifier interface {
	NotifyParticipant(ctx context.Context, userID, eventID uuid.UUID, kind string, data map[string]interface{}) error
}

// AiAnalyzer dispatches the external venue-recommendation job. The engine
// only tracks the job's lifecycle; it never performs the analysis.
type AiAnalyzer interface {
	DispatchAnalysis(ctx context.Context, eventID uuid.UUID, options []entity.EventPlaceOption) (jobID string, err error)
}

// PlaceDirectory resolves externally sourced venues for options not backed
// by the internal place catalog.
type PlaceDirectory interface {
	LookupExternalPlace(ctx context.Context, provider, externalID string) (*entity.ExternalVenue, error)
}

package service

import (
	"context"
	"time"

	"hangout-api/core/config"
	"hangout-api/core/constants"
	"hangout-api/core/errors"
	"hangout-api/core/logger"
	"hangout-api/modules/event/dto"
	"hangout-api/modules/event/entity"
	"hangout-api/modules/event/repository"

	"github.com/google/uuid"
)

// AiService tracks long-running place analysis on an event. The analysis
// itself runs out of process; we record dispatch, progress callbacks and
// time out abandoned runs.
type AiService struct {
	events   repository.EventRepositoryInterface
	options  repository.OptionRepositoryInterface
	analyzer AiAnalyzer
	notifier Notifier
}

type AiServiceInterface interface {
	StartAnalysis(ctx context.Context, eventID, actorID uuid.UUID) (string, *errors.AppError)
	UpdateProgress(ctx context.Context, eventID uuid.UUID, req *dto.AiProgressRequest) *errors.AppError
	CompleteAnalysis(ctx context.Context, eventID uuid.UUID) *errors.AppError
	CheckTimeouts(ctx context.Context, now time.Time) error
}

func NewAiService(
	events repository.EventRepositoryInterface,
	options repository.OptionRepositoryInterface,
	analyzer AiAnalyzer,
	notifier Notifier,
) *AiService {
	return &AiService{events: events, options: options, analyzer: analyzer, notifier: notifier}
}

// StartAnalysis claims the event for one analysis run and dispatches it.
// The conditional SetAiAnalysisStarted update rejects a second start while
// one is in flight.
func (s *AiService) StartAnalysis(ctx context.Context, eventID, actorID uuid.UUID) (string, *errors.AppError) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return "", errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.OrganizerID != actorID {
		return "", errors.NewAppError(errors.ErrForbidden, "Only the organizer can request analysis", nil)
	}
	if event.Status.IsTerminal() {
		return "", errors.NewAppError(errors.ErrInvalidTransition, "Event is no longer active", nil)
	}

	options, err := s.options.ListByEventID(ctx, eventID)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to load options", err)
	}

	claimed, err := s.events.SetAiAnalysisStarted(ctx, eventID, time.Now())
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to start analysis", err)
	}
	if !claimed {
		return "", errors.NewAppError(errors.ErrAlreadyExists, "An analysis is already running for this event", nil)
	}

	jobID, err := s.analyzer.DispatchAnalysis(ctx, eventID, options)
	if err != nil {
		// Release the claim so a retry is possible
		if cErr := s.events.ClearAiAnalysis(ctx, eventID); cErr != nil {
			logger.Error("AiService:StartAnalysis:Clear", "error", cErr, "event_id", eventID)
		}
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to dispatch analysis", err)
	}

	return jobID, nil
}

// UpdateProgress stores a progress snapshot from the analysis worker
func (s *AiService) UpdateProgress(ctx context.Context, eventID uuid.UUID, req *dto.AiProgressRequest) *errors.AppError {
	updated, err := s.events.UpdateAiAnalysisProgress(ctx, eventID, entity.JSONB(req.Progress))
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to record progress", err)
	}
	if !updated {
		return errors.NewAppError(errors.ErrNotFound, "No running analysis for this event", nil)
	}
	return nil
}

// CompleteAnalysis clears the running marker once results are stored
func (s *AiService) CompleteAnalysis(ctx context.Context, eventID uuid.UUID) *errors.AppError {
	if err := s.events.ClearAiAnalysis(ctx, eventID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to finish analysis", err)
	}
	return nil
}

// CheckTimeouts abandons analyses that have run past the configured limit
// and tells the organizer.
func (s *AiService) CheckTimeouts(ctx context.Context, now time.Time) error {
	timeout := 30 * time.Minute
	if cfg, ok := config.GetSafe(); ok {
		timeout = time.Duration(cfg.Ai.TimeoutMinutes) * time.Minute
	}

	stale, err := s.events.ListAiAnalysisStale(ctx, now.Add(-timeout))
	if err != nil {
		return err
	}

	for i := range stale {
		event := &stale[i]
		if cErr := s.events.ClearAiAnalysis(ctx, event.ID); cErr != nil {
			logger.Error("AiService:CheckTimeouts:Clear", "error", cErr, "event_id", event.ID)
			continue
		}
		if nErr := s.notifier.NotifyParticipant(ctx, event.OrganizerID, event.ID,
			constants.NotificationKindAiTimedOut, map[string]interface{}{
				"started_at": event.AiAnalysisStartedAt,
			}); nErr != nil {
			logger.Error("AiService:CheckTimeouts:Notify", "error", nErr, "event_id", event.ID)
		}
	}

	return nil
}

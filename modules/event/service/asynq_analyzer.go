package service

import (
	"context"
	"encoding/json"

	"hangout-api/core/constants"
	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// AsynqAnalyzer hands the analysis off to the ai queue. A worker outside
// this process consumes the task and reports back through the progress API.
type AsynqAnalyzer struct {
	client *asynq.Client
}

func NewAsynqAnalyzer(client *asynq.Client) *AsynqAnalyzer {
	return &AsynqAnalyzer{client: client}
}

type analysisPayload struct {
	EventID uuid.UUID        `json:"event_id"`
	Options []analysisOption `json:"options"`
}

type analysisOption struct {
	OptionID uuid.UUID    `json:"option_id"`
	Venue    entity.Venue `json:"venue"`
}

func (a *AsynqAnalyzer) DispatchAnalysis(ctx context.Context, eventID uuid.UUID, options []entity.EventPlaceOption) (string, error) {
	payload := analysisPayload{EventID: eventID}
	for i := range options {
		payload.Options = append(payload.Options, analysisOption{
			OptionID: options[i].ID,
			Venue:    options[i].Venue(),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	info, err := a.client.EnqueueContext(ctx,
		asynq.NewTask(constants.TaskAiAnalysisDispatch, body),
		asynq.Queue("ai"),
	)
	if err != nil {
		return "", err
	}

	return info.ID, nil
}

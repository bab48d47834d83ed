package dto

import (
	"github.com/google/uuid"
)

type CastVoteRequest struct {
	OptionID string  `json:"option_id" validate:"required"`
	Value    *int    `json:"value"` // 1..5, omit for a plain "for" vote
	Comment  *string `json:"comment"`
}

type ForceDecisionRequest struct {
	OptionID string `json:"option_id" validate:"required"`
}

type OptionTallyDTO struct {
	OptionID         uuid.UUID `json:"option_id"`
	ParticipantCount int       `json:"participant_count"`
	Score            float64   `json:"score"`
}

type VoteResultResponse struct {
	EventID   uuid.UUID        `json:"event_id"`
	Status    string           `json:"status"`
	Tallies   []OptionTallyDTO `json:"tallies"`
	Decided   bool             `json:"decided"`
	BestScore *float64         `json:"best_score,omitempty"`
}

type RespondInvitationRequest struct {
	Status string `json:"status" validate:"required"` // accepted | declined
}

type WaitlistRespondRequest struct {
	Accept bool `json:"accept"`
}

type CheckInRequest struct {
	Method string   `json:"method"` // manual | qr_code | geofence
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
}

type AiProgressRequest struct {
	Progress map[string]interface{} `json:"progress" validate:"required"`
}

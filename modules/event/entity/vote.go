package entity

import (
	"time"

	"hangout-api/core/constants"

	"github.com/google/uuid"
)

// EventVote is one participant's vote on one option.
// Unique on (event_id, option_id, voter_id).
type EventVote struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EventID   uuid.UUID `db:"event_id" json:"event_id"`
	OptionID  uuid.UUID `db:"option_id" json:"option_id"`
	VoterID   uuid.UUID `db:"voter_id" json:"voter_id"`
	VoteValue *int      `db:"vote_value" json:"vote_value,omitempty"` // 1..5, nil = plain "for" vote
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NormalizedValue maps the 1..5 vote scale onto [0,1].
func (v *EventVote) NormalizedValue() float64 {
	if v.VoteValue == nil {
		return 0
	}
	val := *v.VoteValue
	if val < constants.VoteValueMin {
		val = constants.VoteValueMin
	}
	if val > constants.VoteValueMax {
		val = constants.VoteValueMax
	}
	return float64(val-constants.VoteValueMin) / float64(constants.VoteValueMax-constants.VoteValueMin)
}

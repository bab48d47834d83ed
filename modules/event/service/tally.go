package service

import (
	"math"
	"sort"
	"time"

	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
)

// OptionTally is the per-option aggregate computed from recorded votes.
type OptionTally struct {
	OptionID         uuid.UUID `json:"option_id"`
	ParticipantCount int       `json:"participant_count"`
	Score            float64   `json:"score"`
	AddedAt          time.Time `json:"-"`
}

// TallyVotes computes, per option, the distinct-voter count and the
// acceptance score. Only votes from accepted participants count: an
// invitation that is still pending, or was declined, must not move the
// score or the quorum. When value votes exist for an option the score is
// the mean of the values normalized to [0,1]; otherwise it is the fraction
// of accepted participants who voted for the option at all.
func TallyVotes(options []entity.EventPlaceOption, votes []entity.EventVote, acceptedIDs []uuid.UUID) []OptionTally {
	accepted := make(map[uuid.UUID]struct{}, len(acceptedIDs))
	for _, id := range acceptedIDs {
		accepted[id] = struct{}{}
	}

	byOption := make(map[uuid.UUID][]entity.EventVote, len(options))
	for _, v := range votes {
		if _, ok := accepted[v.VoterID]; !ok {
			continue
		}
		byOption[v.OptionID] = append(byOption[v.OptionID], v)
	}

	tallies := make([]OptionTally, 0, len(options))
	for _, opt := range options {
		optVotes := byOption[opt.ID]

		voters := make(map[uuid.UUID]struct{}, len(optVotes))
		valueSum := 0.0
		valueCount := 0
		for _, v := range optVotes {
			voters[v.VoterID] = struct{}{}
			if v.VoteValue != nil {
				valueSum += v.NormalizedValue()
				valueCount++
			}
		}

		var score float64
		if valueCount > 0 {
			score = valueSum / float64(valueCount)
		} else if len(accepted) > 0 {
			score = float64(len(voters)) / float64(len(accepted))
		}

		tallies = append(tallies, OptionTally{
			OptionID:         opt.ID,
			ParticipantCount: len(voters),
			Score:            score,
			AddedAt:          opt.AddedAt,
		})
	}

	return tallies
}

// BestOption picks the highest-scoring option; exact ties break by earliest
// AddedAt so the choice is stable and deterministic. Returns nil for an
// empty tally.
func BestOption(tallies []OptionTally) *OptionTally {
	if len(tallies) == 0 {
		return nil
	}

	sorted := make([]OptionTally, len(tallies))
	copy(sorted, tallies)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].AddedAt.Before(sorted[j].AddedAt)
	})

	best := sorted[0]
	return &best
}

// QuorumFloor is the minimum number of distinct voters required before a
// decision may be finalized: ceil(ratio * acceptedCount).
func QuorumFloor(ratio float64, acceptedCount int) int {
	return int(math.Ceil(ratio * float64(acceptedCount)))
}

// EvaluateAcceptance applies the threshold + quorum rule to the tallies.
// It returns the best option and whether it clears both the event's
// acceptance threshold and the quorum floor. An undecided outcome is a
// normal result, not an error.
func EvaluateAcceptance(tallies []OptionTally, threshold, quorumRatio float64, acceptedCount int) (*OptionTally, bool) {
	best := BestOption(tallies)
	if best == nil {
		return nil, false
	}

	if best.Score < threshold {
		return best, false
	}
	if best.ParticipantCount < QuorumFloor(quorumRatio, acceptedCount) {
		return best, false
	}
	return best, true
}

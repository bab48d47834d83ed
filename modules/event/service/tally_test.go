package service

import (
	"testing"
	"time"

	"hangout-api/modules/event/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func option(addedAt time.Time) entity.EventPlaceOption {
	return entity.EventPlaceOption{ID: uuid.New(), AddedAt: addedAt}
}

func acceptedSet(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestTallyVotes_MeanOfNormalizedValues(t *testing.T) {
	opt := option(time.Now())
	accepted := acceptedSet(4)
	votes := []entity.EventVote{
		{OptionID: opt.ID, VoterID: accepted[0], VoteValue: intPtr(5)}, // 1.0
		{OptionID: opt.ID, VoterID: accepted[1], VoteValue: intPtr(3)}, // 0.5
	}

	tallies := TallyVotes([]entity.EventPlaceOption{opt}, votes, accepted)

	require.Len(t, tallies, 1)
	assert.Equal(t, 2, tallies[0].ParticipantCount)
	assert.InDelta(t, 0.75, tallies[0].Score, 1e-9)
}

func TestTallyVotes_FractionWhenNoValues(t *testing.T) {
	opt := option(time.Now())
	accepted := acceptedSet(4)
	votes := []entity.EventVote{
		{OptionID: opt.ID, VoterID: accepted[0]},
		{OptionID: opt.ID, VoterID: accepted[1]},
		{OptionID: opt.ID, VoterID: accepted[2]},
	}

	// 3 of 4 accepted participants voted for the option
	tallies := TallyVotes([]entity.EventPlaceOption{opt}, votes, accepted)

	require.Len(t, tallies, 1)
	assert.InDelta(t, 0.75, tallies[0].Score, 1e-9)
}

func TestTallyVotes_OptionWithoutVotesScoresZero(t *testing.T) {
	opt := option(time.Now())

	tallies := TallyVotes([]entity.EventPlaceOption{opt}, nil, acceptedSet(3))

	require.Len(t, tallies, 1)
	assert.Zero(t, tallies[0].Score)
	assert.Zero(t, tallies[0].ParticipantCount)
}

func TestTallyVotes_IgnoresVotersWhoNeverAccepted(t *testing.T) {
	opt := option(time.Now())
	accepted := acceptedSet(1)
	// Two votes from users outside the accepted set; with one accepted
	// participant, counting them naively would score 2.0 and decide the
	// event on nobody's say-so.
	votes := []entity.EventVote{
		{OptionID: opt.ID, VoterID: uuid.New()},
		{OptionID: opt.ID, VoterID: uuid.New()},
	}

	tallies := TallyVotes([]entity.EventPlaceOption{opt}, votes, accepted)

	require.Len(t, tallies, 1)
	assert.Zero(t, tallies[0].Score)
	assert.Zero(t, tallies[0].ParticipantCount)

	_, ok := EvaluateAcceptance(tallies, 0.7, 0.5, len(accepted))
	assert.False(t, ok)
}

func TestTallyVotes_OutsiderValueVotesExcludedFromMean(t *testing.T) {
	opt := option(time.Now())
	accepted := acceptedSet(2)
	votes := []entity.EventVote{
		{OptionID: opt.ID, VoterID: accepted[0], VoteValue: intPtr(3)}, // 0.5
		{OptionID: opt.ID, VoterID: uuid.New(), VoteValue: intPtr(5)}, // dropped
	}

	tallies := TallyVotes([]entity.EventPlaceOption{opt}, votes, accepted)

	require.Len(t, tallies, 1)
	assert.Equal(t, 1, tallies[0].ParticipantCount)
	assert.InDelta(t, 0.5, tallies[0].Score, 1e-9)
}

func TestBestOption_HighestScoreWins(t *testing.T) {
	now := time.Now()
	a := OptionTally{OptionID: uuid.New(), Score: 0.8, AddedAt: now}
	b := OptionTally{OptionID: uuid.New(), Score: 0.6, AddedAt: now.Add(-time.Hour)}

	best := BestOption([]OptionTally{b, a})

	require.NotNil(t, best)
	assert.Equal(t, a.OptionID, best.OptionID)
}

func TestBestOption_TieBreaksByEarliestAddedAt(t *testing.T) {
	now := time.Now()
	earlier := OptionTally{OptionID: uuid.New(), Score: 0.8, AddedAt: now.Add(-2 * time.Hour)}
	later := OptionTally{OptionID: uuid.New(), Score: 0.8, AddedAt: now}

	best := BestOption([]OptionTally{later, earlier})

	require.NotNil(t, best)
	assert.Equal(t, earlier.OptionID, best.OptionID)
}

func TestBestOption_EmptyReturnsNil(t *testing.T) {
	assert.Nil(t, BestOption(nil))
}

func TestQuorumFloor(t *testing.T) {
	assert.Equal(t, 3, QuorumFloor(0.5, 5))
	assert.Equal(t, 2, QuorumFloor(0.5, 4))
	assert.Equal(t, 0, QuorumFloor(0.5, 0))
	assert.Equal(t, 5, QuorumFloor(1.0, 5))
}

func TestEvaluateAcceptance_AcceptsAboveThresholdWithQuorum(t *testing.T) {
	now := time.Now()
	winner := OptionTally{OptionID: uuid.New(), Score: 0.8, ParticipantCount: 3, AddedAt: now}
	loser := OptionTally{OptionID: uuid.New(), Score: 0.6, ParticipantCount: 3, AddedAt: now}

	best, accepted := EvaluateAcceptance([]OptionTally{loser, winner}, 0.75, 0.5, 4)

	require.NotNil(t, best)
	assert.True(t, accepted)
	assert.Equal(t, winner.OptionID, best.OptionID)
}

func TestEvaluateAcceptance_UndecidedBelowThreshold(t *testing.T) {
	best, accepted := EvaluateAcceptance([]OptionTally{
		{OptionID: uuid.New(), Score: 0.8, ParticipantCount: 4},
	}, 0.9, 0.5, 4)

	require.NotNil(t, best)
	assert.False(t, accepted)
}

func TestEvaluateAcceptance_UndecidedBelowQuorum(t *testing.T) {
	// One early voter scoring top marks must not decide for six people.
	best, accepted := EvaluateAcceptance([]OptionTally{
		{OptionID: uuid.New(), Score: 1.0, ParticipantCount: 1},
	}, 0.7, 0.5, 6)

	require.NotNil(t, best)
	assert.False(t, accepted)
}

func TestEvaluateAcceptance_NoOptions(t *testing.T) {
	best, accepted := EvaluateAcceptance(nil, 0.7, 0.5, 4)
	assert.Nil(t, best)
	assert.False(t, accepted)
}

package service

import (
	"context"
	"testing"
	"time"

	"hangout-api/core/constants"
	"hangout-api/core/errors"
	"hangout-api/modules/event/dto"
	"hangout-api/modules/event/entity"
	"hangout-api/modules/event/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOptionRepo struct {
	repository.OptionRepositoryInterface
	options []entity.EventPlaceOption
}

func (f *fakeOptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.EventPlaceOption, error) {
	for i := range f.options {
		if f.options[i].ID == id {
			return &f.options[i], nil
		}
	}
	return nil, nil
}

func (f *fakeOptionRepo) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventPlaceOption, error) {
	var out []entity.EventPlaceOption
	for _, o := range f.options {
		if o.EventID == eventID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeVoteRepo struct {
	repository.VoteRepositoryInterface
	votes []entity.EventVote
}

func (f *fakeVoteRepo) Insert(ctx context.Context, vote *entity.EventVote) (bool, error) {
	for _, v := range f.votes {
		if v.EventID == vote.EventID && v.OptionID == vote.OptionID && v.VoterID == vote.VoterID {
			return false, nil
		}
	}
	f.votes = append(f.votes, *vote)
	return true, nil
}

func (f *fakeVoteRepo) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventVote, error) {
	var out []entity.EventVote
	for _, v := range f.votes {
		if v.EventID == eventID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVoteRepo) CountDistinctVoters(ctx context.Context, eventID uuid.UUID) (int, error) {
	seen := map[uuid.UUID]bool{}
	for _, v := range f.votes {
		if v.EventID == eventID {
			seen[v.VoterID] = true
		}
	}
	return len(seen), nil
}

type fakeParticipantRepo struct {
	repository.ParticipantRepositoryInterface
	participants   []entity.EventParticipant
	reminderResets int
}

func (f *fakeParticipantRepo) Get(ctx context.Context, eventID, userID uuid.UUID) (*entity.EventParticipant, error) {
	for i := range f.participants {
		if f.participants[i].EventID == eventID && f.participants[i].UserID == userID {
			return &f.participants[i], nil
		}
	}
	return nil, nil
}

func (f *fakeParticipantRepo) CountByStatus(ctx context.Context, eventID uuid.UUID, status entity.InvitationStatus) (int, error) {
	n := 0
	for _, p := range f.participants {
		if p.EventID == eventID && p.InvitationStatus == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeParticipantRepo) ListByStatus(ctx context.Context, eventID uuid.UUID, status entity.InvitationStatus) ([]entity.EventParticipant, error) {
	var out []entity.EventParticipant
	for _, p := range f.participants {
		if p.EventID == eventID && p.InvitationStatus == status {
			out = append(out, p)
		}
	}
	return out, nil
}

type sentNotification struct {
	UserID uuid.UUID
	Kind   string
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) NotifyParticipant(ctx context.Context, userID, eventID uuid.UUID, kind string, data map[string]interface{}) error {
	f.sent = append(f.sent, sentNotification{UserID: userID, Kind: kind})
	return nil
}

type voteFixture struct {
	svc          *VoteService
	events       *fakeEventRepo
	options      *fakeOptionRepo
	votes        *fakeVoteRepo
	participants *fakeParticipantRepo
	notifier     *fakeNotifier
	eventID      uuid.UUID
	optionID     uuid.UUID
}

func newVoteFixture(status entity.EventStatus, accepted ...uuid.UUID) *voteFixture {
	eventID := uuid.New()
	optionID := uuid.New()
	placeID := uuid.New()

	events := &fakeEventRepo{event: entity.Event{
		ID:                  eventID,
		OrganizerID:         uuid.New(),
		Status:              status,
		Timezone:            "Asia/Ho_Chi_Minh",
		AcceptanceThreshold: 0.7,
		Version:             1,
	}}
	options := &fakeOptionRepo{options: []entity.EventPlaceOption{
		{ID: optionID, EventID: eventID, PlaceID: &placeID, AddedAt: time.Now()},
	}}
	participants := &fakeParticipantRepo{}
	for _, userID := range accepted {
		participants.participants = append(participants.participants, entity.EventParticipant{
			EventID:          eventID,
			UserID:           userID,
			InvitationStatus: entity.InvitationStatusAccepted,
		})
	}
	votes := &fakeVoteRepo{}
	notifier := &fakeNotifier{}
	machine := NewStateMachine(fakeTxRunner{}, events, &fakeAuditRepo{})

	return &voteFixture{
		svc:          NewVoteService(events, options, votes, participants, machine, notifier),
		events:       events,
		options:      options,
		votes:        votes,
		participants: participants,
		notifier:     notifier,
		eventID:      eventID,
		optionID:     optionID,
	}
}

func TestCastVote_RejectedOutsideVoting(t *testing.T) {
	voter := uuid.New()
	fix := newVoteFixture(entity.EventStatusPlanning, voter)

	_, appErr := fix.svc.CastVote(context.Background(), fix.eventID, voter,
		&dto.CastVoteRequest{OptionID: fix.optionID.String()})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrVotingClosed, appErr.Code)
}

func TestCastVote_RejectedAfterDeadline(t *testing.T) {
	voter := uuid.New()
	fix := newVoteFixture(entity.EventStatusVoting, voter)
	past := time.Now().Add(-time.Hour)
	fix.events.event.VotingDeadline = &past

	_, appErr := fix.svc.CastVote(context.Background(), fix.eventID, voter,
		&dto.CastVoteRequest{OptionID: fix.optionID.String()})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrVotingClosed, appErr.Code)
}

func TestCastVote_RejectedForNonParticipant(t *testing.T) {
	fix := newVoteFixture(entity.EventStatusVoting, uuid.New())

	_, appErr := fix.svc.CastVote(context.Background(), fix.eventID, uuid.New(),
		&dto.CastVoteRequest{OptionID: fix.optionID.String()})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestCastVote_RejectedForPendingInvitation(t *testing.T) {
	accepted := uuid.New()
	fix := newVoteFixture(entity.EventStatusVoting, accepted)
	pending := uuid.New()
	fix.participants.participants = append(fix.participants.participants, entity.EventParticipant{
		EventID:          fix.eventID,
		UserID:           pending,
		InvitationStatus: entity.InvitationStatusPending,
	})

	_, appErr := fix.svc.CastVote(context.Background(), fix.eventID, pending,
		&dto.CastVoteRequest{OptionID: fix.optionID.String()})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
	assert.Empty(t, fix.votes.votes)
	assert.Equal(t, entity.EventStatusVoting, fix.events.event.Status)
}

func TestCastVote_RejectedValueOutOfRange(t *testing.T) {
	voter := uuid.New()
	fix := newVoteFixture(entity.EventStatusVoting, voter)
	value := 9

	_, appErr := fix.svc.CastVote(context.Background(), fix.eventID, voter,
		&dto.CastVoteRequest{OptionID: fix.optionID.String(), Value: &value})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestCastVote_DuplicateRejected(t *testing.T) {
	voter := uuid.New()
	fix := newVoteFixture(entity.EventStatusVoting, voter, uuid.New())

	_, appErr := fix.svc.CastVote(context.Background(), fix.eventID, voter,
		&dto.CastVoteRequest{OptionID: fix.optionID.String()})
	require.Nil(t, appErr)

	_, appErr = fix.svc.CastVote(context.Background(), fix.eventID, voter,
		&dto.CastVoteRequest{OptionID: fix.optionID.String()})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrDuplicateVote, appErr.Code)
	assert.Len(t, fix.votes.votes, 1)
}

func TestCastVote_ConfirmsWhenAllParticipantsVoted(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	fix := newVoteFixture(entity.EventStatusVoting, alice, bob)
	value := 5

	result, appErr := fix.svc.CastVote(context.Background(), fix.eventID, alice,
		&dto.CastVoteRequest{OptionID: fix.optionID.String(), Value: &value})
	require.Nil(t, appErr)
	assert.False(t, result.Decided)
	assert.Equal(t, entity.EventStatusVoting, fix.events.event.Status)

	result, appErr = fix.svc.CastVote(context.Background(), fix.eventID, bob,
		&dto.CastVoteRequest{OptionID: fix.optionID.String(), Value: &value})
	require.Nil(t, appErr)

	assert.True(t, result.Decided)
	assert.Equal(t, entity.EventStatusConfirmed, fix.events.event.Status)
	require.NotNil(t, fix.events.event.FinalOptionID)
	assert.Equal(t, fix.optionID, *fix.events.event.FinalOptionID)
	assert.NotNil(t, fix.events.event.FinalPlaceID)

	// Both accepted participants hear about the confirmation.
	var statusChanges int
	for _, n := range fix.notifier.sent {
		if n.Kind == constants.NotificationKindStatusChange {
			statusChanges++
		}
	}
	assert.Equal(t, 2, statusChanges)
}

func TestForceDecision_OrganizerOnly(t *testing.T) {
	fix := newVoteFixture(entity.EventStatusVoting, uuid.New())

	_, appErr := fix.svc.ForceDecision(context.Background(), fix.eventID, fix.optionID, uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	_, appErr = fix.svc.ForceDecision(context.Background(), fix.eventID, fix.optionID, fix.events.event.OrganizerID)
	require.Nil(t, appErr)
	assert.Equal(t, entity.EventStatusConfirmed, fix.events.event.Status)
}

// fakeSweepEventRepo adds the deadline-sweep queries on top of fakeEventRepo.
type fakeSweepEventRepo struct {
	*fakeEventRepo
	claims int
}

func (f *fakeSweepEventRepo) ListVotingDeadlinePassed(ctx context.Context, now time.Time) ([]entity.Event, error) {
	if f.event.Status != entity.EventStatusVoting {
		return nil, nil
	}
	return []entity.Event{f.event}, nil
}

func (f *fakeSweepEventRepo) ClaimUnresolvedNotification(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.claims++
	return f.claims == 1, nil
}

func TestSweepVotingDeadlines_OutsiderVotesDoNotDecide(t *testing.T) {
	fix := newVoteFixture(entity.EventStatusVoting, uuid.New())
	past := time.Now().Add(-time.Hour)
	fix.events.event.VotingDeadline = &past
	// Votes recorded by users whose invitations were never accepted. With
	// one accepted participant they must not tally to a score above 1.0
	// and auto-confirm the event.
	fix.votes.votes = append(fix.votes.votes,
		entity.EventVote{EventID: fix.eventID, OptionID: fix.optionID, VoterID: uuid.New()},
		entity.EventVote{EventID: fix.eventID, OptionID: fix.optionID, VoterID: uuid.New()},
	)
	sweepEvents := &fakeSweepEventRepo{fakeEventRepo: fix.events}
	svc := NewVoteService(sweepEvents, fix.options, fix.votes, fix.participants,
		NewStateMachine(fakeTxRunner{}, sweepEvents, &fakeAuditRepo{}), fix.notifier)

	require.NoError(t, svc.SweepVotingDeadlines(context.Background(), time.Now()))

	assert.Equal(t, entity.EventStatusVoting, fix.events.event.Status)
	assert.Nil(t, fix.events.event.FinalOptionID)
}

func TestSweepVotingDeadlines_NotifiesOrganizerOnce(t *testing.T) {
	fix := newVoteFixture(entity.EventStatusVoting, uuid.New(), uuid.New(), uuid.New())
	past := time.Now().Add(-time.Hour)
	fix.events.event.VotingDeadline = &past
	sweepEvents := &fakeSweepEventRepo{fakeEventRepo: fix.events}
	svc := NewVoteService(sweepEvents, fix.options, fix.votes, fix.participants,
		NewStateMachine(fakeTxRunner{}, sweepEvents, &fakeAuditRepo{}), fix.notifier)

	// No votes at all: the event stays undecided past its deadline.
	require.NoError(t, svc.SweepVotingDeadlines(context.Background(), time.Now()))
	require.NoError(t, svc.SweepVotingDeadlines(context.Background(), time.Now()))

	assert.Equal(t, entity.EventStatusVoting, fix.events.event.Status)
	require.Len(t, fix.notifier.sent, 1)
	assert.Equal(t, constants.NotificationKindUnresolvedDecision, fix.notifier.sent[0].Kind)
	assert.Equal(t, fix.events.event.OrganizerID, fix.notifier.sent[0].UserID)
}

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

// VoteService handles vote recording and acceptance evaluation
type VoteService struct {
	events       repository.EventRepositoryInterface
	options      repository.OptionRepositoryInterface
	votes        repository.VoteRepositoryInterface
	participants repository.ParticipantRepositoryInterface
	machine      *StateMachine
	notifier     Notifier
}

type VoteServiceInterface interface {
	CastVote(ctx context.Context, eventID, voterID uuid.UUID, req *dto.CastVoteRequest) (*dto.VoteResultResponse, *errors.AppError)
	ForceDecision(ctx context.Context, eventID, optionID, actorID uuid.UUID) (*dto.VoteResultResponse, *errors.AppError)
	GetResults(ctx context.Context, eventID uuid.UUID) (*dto.VoteResultResponse, *errors.AppError)
	SweepVotingDeadlines(ctx context.Context, now time.Time) error
}

func NewVoteService(
	events repository.EventRepositoryInterface,
	options repository.OptionRepositoryInterface,
	votes repository.VoteRepositoryInterface,
	participants repository.ParticipantRepositoryInterface,
	machine *StateMachine,
	notifier Notifier,
) *VoteService {
	return &VoteService{
		events:       events,
		options:      options,
		votes:        votes,
		participants: participants,
		machine:      machine,
		notifier:     notifier,
	}
}

// CastVote records one participant's vote on one option. When all accepted
// participants have voted, acceptance evaluation runs immediately.
func (s *VoteService) CastVote(ctx context.Context, eventID, voterID uuid.UUID, req *dto.CastVoteRequest) (*dto.VoteResultResponse, *errors.AppError) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.Status != entity.EventStatusVoting {
		return nil, errors.NewAppError(errors.ErrVotingClosed, "Event is not accepting votes", nil)
	}
	if event.VotingDeadline != nil && time.Now().After(*event.VotingDeadline) {
		return nil, errors.NewAppError(errors.ErrVotingClosed, "Voting deadline has passed", nil)
	}

	optionID, parseErr := uuid.Parse(req.OptionID)
	if parseErr != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid option ID", parseErr)
	}

	option, err := s.options.GetByID(ctx, optionID)
	if err != nil || option == nil || option.EventID != eventID {
		return nil, errors.NewAppError(errors.ErrNotFound, "Option not found for this event", err)
	}

	participant, err := s.participants.Get(ctx, eventID, voterID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to check participant", err)
	}
	if participant == nil {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only event participants can vote", nil)
	}
	if participant.InvitationStatus != entity.InvitationStatusAccepted {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only accepted participants can vote", nil)
	}

	if req.Value != nil && (*req.Value < constants.VoteValueMin || *req.Value > constants.VoteValueMax) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Vote value out of range", nil)
	}

	inserted, err := s.votes.Insert(ctx, &entity.EventVote{
		EventID:   eventID,
		OptionID:  optionID,
		VoterID:   voterID,
		VoteValue: req.Value,
		Comment:   req.Comment,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to record vote", err)
	}
	if !inserted {
		return nil, errors.NewAppError(errors.ErrDuplicateVote, "You have already voted on this option", nil)
	}

	// All accepted participants voted -> evaluate now instead of waiting
	// for the deadline sweep.
	acceptedCount, err := s.participants.CountByStatus(ctx, eventID, entity.InvitationStatusAccepted)
	if err == nil && acceptedCount > 0 {
		distinctVoters, cErr := s.votes.CountDistinctVoters(ctx, eventID)
		if cErr == nil && distinctVoters >= acceptedCount {
			return s.evaluate(ctx, event, "all participants voted", nil)
		}
	}

	return s.GetResults(ctx, eventID)
}

// ForceDecision lets the organizer confirm a specific option regardless of
// threshold and quorum.
func (s *VoteService) ForceDecision(ctx context.Context, eventID, optionID, actorID uuid.UUID) (*dto.VoteResultResponse, *errors.AppError) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}
	if event.OrganizerID != actorID {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the organizer can force a decision", nil)
	}

	option, err := s.options.GetByID(ctx, optionID)
	if err != nil || option == nil || option.EventID != eventID {
		return nil, errors.NewAppError(errors.ErrNotFound, "Option not found for this event", err)
	}

	if appErr := s.confirmOption(ctx, event, option, "organizer override", &actorID); appErr != nil {
		return nil, appErr
	}

	return s.GetResults(ctx, eventID)
}

// GetResults returns the current tallies without deciding anything
func (s *VoteService) GetResults(ctx context.Context, eventID uuid.UUID) (*dto.VoteResultResponse, *errors.AppError) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil || event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", err)
	}

	tallies, _, appErr := s.loadTallies(ctx, eventID)
	if appErr != nil {
		return nil, appErr
	}

	resp := &dto.VoteResultResponse{
		EventID: eventID,
		Status:  string(event.Status),
		Decided: event.FinalOptionID != nil,
	}
	for _, t := range tallies {
		resp.Tallies = append(resp.Tallies, dto.OptionTallyDTO{
			OptionID:         t.OptionID,
			ParticipantCount: t.ParticipantCount,
			Score:            t.Score,
		})
	}
	if best := BestOption(tallies); best != nil {
		score := best.Score
		resp.BestScore = &score
	}

	return resp, nil
}

// SweepVotingDeadlines evaluates every voting event whose deadline passed.
// Undecided events stay in voting; the organizer is notified at most once.
func (s *VoteService) SweepVotingDeadlines(ctx context.Context, now time.Time) error {
	events, err := s.events.ListVotingDeadlinePassed(ctx, now)
	if err != nil {
		return err
	}

	for i := range events {
		event := &events[i]
		result, appErr := s.evaluate(ctx, event, "voting deadline reached", nil)
		if appErr != nil {
			logger.Error("VoteService:SweepVotingDeadlines:Evaluate", "error", appErr, "event_id", event.ID)
			continue
		}

		if !result.Decided {
			claimed, cErr := s.events.ClaimUnresolvedNotification(ctx, event.ID, now)
			if cErr != nil {
				continue
			}
			if claimed {
				if nErr := s.notifier.NotifyParticipant(ctx, event.OrganizerID, event.ID,
					constants.NotificationKindUnresolvedDecision, map[string]interface{}{
						"voting_deadline": event.VotingDeadline,
					}); nErr != nil {
					logger.Error("VoteService:SweepVotingDeadlines:Notify", "error", nErr, "event_id", event.ID)
				}
			}
		}
	}

	return nil
}

// evaluate reads a consistent snapshot of votes, applies the acceptance rule
// and confirms the winning option when it clears threshold and quorum.
func (s *VoteService) evaluate(ctx context.Context, event *entity.Event, trigger string, actorID *uuid.UUID) (*dto.VoteResultResponse, *errors.AppError) {
	tallies, acceptedCount, appErr := s.loadTallies(ctx, event.ID)
	if appErr != nil {
		return nil, appErr
	}

	quorumRatio := 0.5
	if cfg, ok := config.GetSafe(); ok {
		quorumRatio = cfg.Voting.QuorumRatio
	}

	best, accepted := EvaluateAcceptance(tallies, event.AcceptanceThreshold, quorumRatio, acceptedCount)
	if !accepted {
		logger.Info("VoteService:Evaluate:Undecided",
			"event_id", event.ID, "trigger", trigger, "accepted_count", acceptedCount)
		return s.GetResults(ctx, event.ID)
	}

	option, err := s.options.GetByID(ctx, best.OptionID)
	if err != nil || option == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Winning option vanished", err)
	}

	if appErr := s.confirmOption(ctx, event, option, trigger, actorID); appErr != nil {
		// The transition CAS loses when another evaluator confirmed first;
		// that outcome is equivalent to winning.
		if appErr.Code == errors.ErrInvalidTransition || appErr.Code == errors.ErrConcurrentModification {
			logger.Info("VoteService:Evaluate:AlreadyDecided", "event_id", event.ID)
			return s.GetResults(ctx, event.ID)
		}
		return nil, appErr
	}

	return s.GetResults(ctx, event.ID)
}

// confirmOption transitions Voting -> Confirmed with the final place set
// atomically with the status change.
func (s *VoteService) confirmOption(ctx context.Context, event *entity.Event, option *entity.EventPlaceOption, reason string, actorID *uuid.UUID) *errors.AppError {
	updated, appErr := s.machine.Transition(ctx, TransitionRequest{
		EventID:   event.ID,
		NewStatus: entity.EventStatusConfirmed,
		ChangedBy: actorID,
		Reason:    reason,
		AdditionalData: entity.JSONB{
			"winning_option_id": option.ID.String(),
			"venue":             option.Venue(),
		},
		Apply: func(e *entity.Event) *errors.AppError {
			e.FinalOptionID = &option.ID
			e.FinalPlaceID = option.PlaceID
			return nil
		},
	})
	if appErr != nil {
		return appErr
	}

	participants, err := s.participants.ListByStatus(ctx, event.ID, entity.InvitationStatusAccepted)
	if err == nil {
		for _, p := range participants {
			if nErr := s.notifier.NotifyParticipant(ctx, p.UserID, updated.ID,
				constants.NotificationKindStatusChange, map[string]interface{}{
					"new_status":        string(entity.EventStatusConfirmed),
					"winning_option_id": option.ID.String(),
				}); nErr != nil {
				logger.Error("VoteService:confirmOption:Notify", "error", nErr,
					"event_id", updated.ID, "user_id", p.UserID)
			}
		}
	}

	return nil
}

// loadTallies builds the tally snapshot used by evaluation and result reads
func (s *VoteService) loadTallies(ctx context.Context, eventID uuid.UUID) ([]OptionTally, int, *errors.AppError) {
	options, err := s.options.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, 0, errors.NewAppError(errors.ErrInternalServer, "Failed to load options", err)
	}

	votes, err := s.votes.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, 0, errors.NewAppError(errors.ErrInternalServer, "Failed to load votes", err)
	}

	accepted, err := s.participants.ListByStatus(ctx, eventID, entity.InvitationStatusAccepted)
	if err != nil {
		return nil, 0, errors.NewAppError(errors.ErrInternalServer, "Failed to load participants", err)
	}
	acceptedIDs := make([]uuid.UUID, 0, len(accepted))
	for _, p := range accepted {
		acceptedIDs = append(acceptedIDs, p.UserID)
	}

	return TallyVotes(options, votes, acceptedIDs), len(acceptedIDs), nil
}

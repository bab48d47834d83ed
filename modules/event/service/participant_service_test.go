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

// UpdateStatus and Create extend the shared participant fake for the
// RSVP flows exercised below.
func (f *fakeParticipantRepo) UpdateStatus(ctx context.Context, eventID, userID uuid.UUID, status entity.InvitationStatus, rsvpDate *time.Time) (bool, error) {
	for i := range f.participants {
		if f.participants[i].EventID == eventID && f.participants[i].UserID == userID {
			f.participants[i].InvitationStatus = status
			f.participants[i].RsvpDate = rsvpDate
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeParticipantRepo) Create(ctx context.Context, p *entity.EventParticipant) (bool, error) {
	for _, existing := range f.participants {
		if existing.EventID == p.EventID && existing.UserID == p.UserID {
			return false, nil
		}
	}
	f.participants = append(f.participants, *p)
	return true, nil
}

type fakeWaitlistRepo struct {
	repository.WaitlistRepositoryInterface
	entries []entity.EventWaitlist
}

func (f *fakeWaitlistRepo) Insert(ctx context.Context, w *entity.EventWaitlist) (*entity.EventWaitlist, error) {
	for _, e := range f.entries {
		if e.EventID == w.EventID && e.UserID == w.UserID {
			return nil, nil
		}
	}
	w.ID = uuid.New()
	w.JoinedAt = time.Now()
	f.entries = append(f.entries, *w)
	return w, nil
}

func (f *fakeWaitlistRepo) Reopen(ctx context.Context, id uuid.UUID, priority int) (bool, error) {
	for i := range f.entries {
		e := &f.entries[i]
		if e.ID != id {
			continue
		}
		if e.Status != entity.WaitlistStatusExpired && e.Status != entity.WaitlistStatusResponded {
			return false, nil
		}
		e.Status = entity.WaitlistStatusWaiting
		e.Priority = priority
		e.JoinedAt = time.Now()
		e.NotifiedAt = nil
		return true, nil
	}
	return false, nil
}

func (f *fakeWaitlistRepo) ListEventIDsWithWaiting(ctx context.Context) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, e := range f.entries {
		if e.Status == entity.WaitlistStatusWaiting && !seen[e.EventID] {
			seen[e.EventID] = true
			ids = append(ids, e.EventID)
		}
	}
	return ids, nil
}

func (f *fakeWaitlistRepo) Get(ctx context.Context, eventID, userID uuid.UUID) (*entity.EventWaitlist, error) {
	for i := range f.entries {
		if f.entries[i].EventID == eventID && f.entries[i].UserID == userID {
			return &f.entries[i], nil
		}
	}
	return nil, nil
}

func (f *fakeWaitlistRepo) NextPriority(ctx context.Context, eventID uuid.UUID) (int, error) {
	max := 0
	for _, e := range f.entries {
		if e.EventID == eventID && e.Priority > max {
			max = e.Priority
		}
	}
	return max + 1, nil
}

func (f *fakeWaitlistRepo) NextWaiting(ctx context.Context, eventID uuid.UUID) (*entity.EventWaitlist, error) {
	var best *entity.EventWaitlist
	for i := range f.entries {
		e := &f.entries[i]
		if e.EventID != eventID || e.Status != entity.WaitlistStatusWaiting {
			continue
		}
		if best == nil || e.Priority < best.Priority {
			best = e
		}
	}
	return best, nil
}

func (f *fakeWaitlistRepo) ClaimNotify(ctx context.Context, id uuid.UUID, notifiedAt time.Time) (bool, error) {
	for i := range f.entries {
		if f.entries[i].ID == id && f.entries[i].Status == entity.WaitlistStatusWaiting {
			f.entries[i].Status = entity.WaitlistStatusNotified
			f.entries[i].NotifiedAt = &notifiedAt
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWaitlistRepo) MarkResponded(ctx context.Context, id uuid.UUID) (bool, error) {
	for i := range f.entries {
		if f.entries[i].ID == id && f.entries[i].Status == entity.WaitlistStatusNotified {
			f.entries[i].Status = entity.WaitlistStatusResponded
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWaitlistRepo) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	for i := range f.entries {
		if f.entries[i].ID == id && f.entries[i].Status == entity.WaitlistStatusNotified {
			f.entries[i].Status = entity.WaitlistStatusExpired
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWaitlistRepo) ListNotifiedBefore(ctx context.Context, cutoff time.Time) ([]entity.EventWaitlist, error) {
	var out []entity.EventWaitlist
	for _, e := range f.entries {
		if e.Status == entity.WaitlistStatusNotified && e.NotifiedAt != nil && e.NotifiedAt.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeLocker struct {
	acquired int
	deny     int // next N acquires report the lock as held
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	f.acquired++
	if f.deny > 0 {
		f.deny--
		return func() {}, false, nil
	}
	return func() {}, true, nil
}

type participantFixture struct {
	svc          *ParticipantService
	events       *fakeEventRepo
	participants *fakeParticipantRepo
	waitlist     *fakeWaitlistRepo
	locker       *fakeLocker
	notifier     *fakeNotifier
	eventID      uuid.UUID
}

func newParticipantFixture(maxAttendees *int) *participantFixture {
	events := &fakeEventRepo{event: entity.Event{
		ID:           uuid.New(),
		OrganizerID:  uuid.New(),
		Status:       entity.EventStatusPlanning,
		Timezone:     "Asia/Ho_Chi_Minh",
		MaxAttendees: maxAttendees,
		Version:      1,
	}}
	participants := &fakeParticipantRepo{}
	waitlist := &fakeWaitlistRepo{}
	locker := &fakeLocker{}
	notifier := &fakeNotifier{}

	return &participantFixture{
		svc:          NewParticipantService(events, participants, waitlist, locker, notifier),
		events:       events,
		participants: participants,
		waitlist:     waitlist,
		locker:       locker,
		notifier:     notifier,
		eventID:      events.event.ID,
	}
}

func (fix *participantFixture) invite(t *testing.T, userID uuid.UUID) {
	t.Helper()
	created, err := fix.participants.Create(context.Background(), &entity.EventParticipant{
		EventID:          fix.eventID,
		UserID:           userID,
		InvitationStatus: entity.InvitationStatusPending,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func (fix *participantFixture) accept(t *testing.T, userID uuid.UUID) *errors.AppError {
	t.Helper()
	_, appErr := fix.svc.RespondToInvitation(context.Background(), fix.eventID, userID,
		&dto.RespondInvitationRequest{Status: string(entity.InvitationStatusAccepted)})
	return appErr
}

func TestInviteParticipant_DuplicateRejected(t *testing.T) {
	fix := newParticipantFixture(nil)
	userID := uuid.New()

	require.Nil(t, fix.svc.InviteParticipant(context.Background(), fix.eventID, fix.events.event.OrganizerID, userID))

	appErr := fix.svc.InviteParticipant(context.Background(), fix.eventID, fix.events.event.OrganizerID, userID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrDuplicateParticipant, appErr.Code)
}

func TestInviteParticipant_OrganizerOnly(t *testing.T) {
	fix := newParticipantFixture(nil)

	appErr := fix.svc.InviteParticipant(context.Background(), fix.eventID, uuid.New(), uuid.New())
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestRespondToInvitation_OverflowGoesToWaitlist(t *testing.T) {
	max := 1
	fix := newParticipantFixture(&max)
	first := uuid.New()
	second := uuid.New()
	fix.invite(t, first)
	fix.invite(t, second)

	require.Nil(t, fix.accept(t, first))

	appErr := fix.accept(t, second)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCapacityExceeded, appErr.Code)

	entry, err := fix.waitlist.Get(context.Background(), fix.eventID, second)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, entity.WaitlistStatusWaiting, entry.Status)
	assert.Equal(t, 1, entry.Priority)
}

func TestRespondToInvitation_AcceptSerializedByEventLock(t *testing.T) {
	max := 1
	fix := newParticipantFixture(&max)
	first := uuid.New()
	second := uuid.New()
	fix.invite(t, first)
	fix.invite(t, second)

	// The lock is held by a concurrent update, so the capacity check and
	// the seat write must not run; both racers seating would exceed max.
	fix.locker.deny = 1
	appErr := fix.accept(t, first)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConcurrentModification, appErr.Code)

	p, _ := fix.participants.Get(context.Background(), fix.eventID, first)
	require.NotNil(t, p)
	assert.Equal(t, entity.InvitationStatusPending, p.InvitationStatus)

	// Once the lock frees, the retry seats normally.
	require.Nil(t, fix.accept(t, first))
	count, _ := fix.participants.CountByStatus(context.Background(), fix.eventID, entity.InvitationStatusAccepted)
	assert.Equal(t, 1, count)
}

func TestRespondToInvitation_RepeatOverflowKeepsSingleWaitlistEntry(t *testing.T) {
	max := 1
	fix := newParticipantFixture(&max)
	seated := uuid.New()
	overflow := uuid.New()
	fix.invite(t, seated)
	fix.invite(t, overflow)
	require.Nil(t, fix.accept(t, seated))

	appErr := fix.accept(t, overflow)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCapacityExceeded, appErr.Code)

	// Accepting again while already waitlisted stays a capacity answer,
	// not a unique-constraint failure.
	appErr = fix.accept(t, overflow)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCapacityExceeded, appErr.Code)
	assert.Len(t, fix.waitlist.entries, 1)
	assert.Equal(t, entity.WaitlistStatusWaiting, fix.waitlist.entries[0].Status)
}

func TestRespondToInvitation_ExpiredWaitlistEntryReopens(t *testing.T) {
	max := 1
	fix := newParticipantFixture(&max)
	seated := uuid.New()
	overflow := uuid.New()
	fix.invite(t, seated)
	fix.invite(t, overflow)
	require.Nil(t, fix.accept(t, seated))
	require.NotNil(t, fix.accept(t, overflow))

	// The entry lapsed; a fresh accept re-opens it at the tail instead of
	// inserting a duplicate row.
	fix.waitlist.entries[0].Status = entity.WaitlistStatusExpired

	appErr := fix.accept(t, overflow)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCapacityExceeded, appErr.Code)

	require.Len(t, fix.waitlist.entries, 1)
	entry := fix.waitlist.entries[0]
	assert.Equal(t, entity.WaitlistStatusWaiting, entry.Status)
	assert.Equal(t, 2, entry.Priority)
	assert.Nil(t, entry.NotifiedAt)
}

func TestRespondToInvitation_DeclineFreesSeatAndNotifiesWaitlistHead(t *testing.T) {
	max := 1
	fix := newParticipantFixture(&max)
	seated := uuid.New()
	waiting := uuid.New()
	fix.invite(t, seated)
	fix.invite(t, waiting)
	require.Nil(t, fix.accept(t, seated))
	require.NotNil(t, fix.accept(t, waiting)) // lands on the waitlist

	_, appErr := fix.svc.RespondToInvitation(context.Background(), fix.eventID, seated,
		&dto.RespondInvitationRequest{Status: string(entity.InvitationStatusDeclined)})
	require.Nil(t, appErr)

	entry, _ := fix.waitlist.Get(context.Background(), fix.eventID, waiting)
	require.NotNil(t, entry)
	assert.Equal(t, entity.WaitlistStatusNotified, entry.Status)

	require.Len(t, fix.notifier.sent, 1)
	assert.Equal(t, constants.NotificationKindWaitlistPromotion, fix.notifier.sent[0].Kind)
	assert.Equal(t, waiting, fix.notifier.sent[0].UserID)
}

func TestRespondToPromotion_AcceptSeatsUser(t *testing.T) {
	max := 1
	fix := newParticipantFixture(&max)
	seated := uuid.New()
	waiting := uuid.New()
	fix.invite(t, seated)
	fix.invite(t, waiting)
	require.Nil(t, fix.accept(t, seated))
	require.NotNil(t, fix.accept(t, waiting))

	_, appErr := fix.svc.RespondToInvitation(context.Background(), fix.eventID, seated,
		&dto.RespondInvitationRequest{Status: string(entity.InvitationStatusDeclined)})
	require.Nil(t, appErr)

	require.Nil(t, fix.svc.RespondToPromotion(context.Background(), fix.eventID, waiting,
		&dto.WaitlistRespondRequest{Accept: true}))

	p, _ := fix.participants.Get(context.Background(), fix.eventID, waiting)
	require.NotNil(t, p)
	assert.Equal(t, entity.InvitationStatusAccepted, p.InvitationStatus)

	entry, _ := fix.waitlist.Get(context.Background(), fix.eventID, waiting)
	assert.Equal(t, entity.WaitlistStatusResponded, entry.Status)
}

func TestRespondToPromotion_DeclinePromotesNext(t *testing.T) {
	max := 1
	fix := newParticipantFixture(&max)
	seated := uuid.New()
	firstWaiter := uuid.New()
	secondWaiter := uuid.New()
	fix.invite(t, seated)
	fix.invite(t, firstWaiter)
	fix.invite(t, secondWaiter)
	require.Nil(t, fix.accept(t, seated))
	require.NotNil(t, fix.accept(t, firstWaiter))
	require.NotNil(t, fix.accept(t, secondWaiter))

	_, appErr := fix.svc.RespondToInvitation(context.Background(), fix.eventID, seated,
		&dto.RespondInvitationRequest{Status: string(entity.InvitationStatusDeclined)})
	require.Nil(t, appErr)

	require.Nil(t, fix.svc.RespondToPromotion(context.Background(), fix.eventID, firstWaiter,
		&dto.WaitlistRespondRequest{Accept: false}))

	first, _ := fix.waitlist.Get(context.Background(), fix.eventID, firstWaiter)
	assert.Equal(t, entity.WaitlistStatusExpired, first.Status)

	second, _ := fix.waitlist.Get(context.Background(), fix.eventID, secondWaiter)
	assert.Equal(t, entity.WaitlistStatusNotified, second.Status)
}

func TestSweepWaitlistExpiry_ExpiresStaleOffersAndReoffers(t *testing.T) {
	max := 1
	fix := newParticipantFixture(&max)
	firstWaiter := uuid.New()
	secondWaiter := uuid.New()
	fix.invite(t, firstWaiter)
	fix.invite(t, secondWaiter)

	longAgo := time.Now().Add(-48 * time.Hour)
	fix.waitlist.entries = []entity.EventWaitlist{
		{ID: uuid.New(), EventID: fix.eventID, UserID: firstWaiter,
			Status: entity.WaitlistStatusNotified, Priority: 1, NotifiedAt: &longAgo},
		{ID: uuid.New(), EventID: fix.eventID, UserID: secondWaiter,
			Status: entity.WaitlistStatusWaiting, Priority: 2},
	}

	require.NoError(t, fix.svc.SweepWaitlistExpiry(context.Background(), time.Now()))

	first, _ := fix.waitlist.Get(context.Background(), fix.eventID, firstWaiter)
	assert.Equal(t, entity.WaitlistStatusExpired, first.Status)

	second, _ := fix.waitlist.Get(context.Background(), fix.eventID, secondWaiter)
	assert.Equal(t, entity.WaitlistStatusNotified, second.Status)

	require.Len(t, fix.notifier.sent, 1)
	assert.Equal(t, secondWaiter, fix.notifier.sent[0].UserID)
}

func TestSweepWaitlistExpiry_RecoversMissedPromotion(t *testing.T) {
	max := 1
	fix := newParticipantFixture(&max)
	seated := uuid.New()
	waiting := uuid.New()
	fix.invite(t, seated)
	fix.invite(t, waiting)
	require.Nil(t, fix.accept(t, seated))
	require.NotNil(t, fix.accept(t, waiting))

	// The promotion lock is held when the seat frees, so the decline
	// offers the seat to nobody.
	fix.locker.deny = 1
	_, appErr := fix.svc.RespondToInvitation(context.Background(), fix.eventID, seated,
		&dto.RespondInvitationRequest{Status: string(entity.InvitationStatusDeclined)})
	require.Nil(t, appErr)

	entry, _ := fix.waitlist.Get(context.Background(), fix.eventID, waiting)
	require.NotNil(t, entry)
	assert.Equal(t, entity.WaitlistStatusWaiting, entry.Status)
	assert.Empty(t, fix.notifier.sent)

	// The next sweep sees free capacity and re-offers the seat.
	require.NoError(t, fix.svc.SweepWaitlistExpiry(context.Background(), time.Now()))

	entry, _ = fix.waitlist.Get(context.Background(), fix.eventID, waiting)
	assert.Equal(t, entity.WaitlistStatusNotified, entry.Status)
	require.Len(t, fix.notifier.sent, 1)
	assert.Equal(t, constants.NotificationKindWaitlistPromotion, fix.notifier.sent[0].Kind)
	assert.Equal(t, waiting, fix.notifier.sent[0].UserID)
}

func TestLeaveEvent_OrganizerBlocked(t *testing.T) {
	fix := newParticipantFixture(nil)

	appErr := fix.svc.LeaveEvent(context.Background(), fix.eventID, fix.events.event.OrganizerID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

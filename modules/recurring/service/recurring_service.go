package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"hangout-api/core/constants"
	"hangout-api/core/errors"
	"hangout-api/core/logger"
	"hangout-api/core/redis"
	"hangout-api/core/utils"
	eventEntity "hangout-api/modules/event/entity"
	eventRepo "hangout-api/modules/event/repository"
	"hangout-api/modules/recurring/dto"
	"hangout-api/modules/recurring/entity"
	"hangout-api/modules/recurring/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	materializationLockTTL = 60 * time.Second
	defaultDaysInAdvance   = 14
	dateLayout             = "2006-01-02"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// RecurringService manages templates and materializes their occurrences
// into concrete planning events.
type RecurringService struct {
	templates repository.RecurringRepositoryInterface
	events    eventRepo.EventRepositoryInterface
	locker    redis.Locker
}

type RecurringServiceInterface interface {
	CreateTemplate(ctx context.Context, organizerID uuid.UUID, req *dto.CreateRecurringEventRequest) (*dto.RecurringEventResponse, *errors.AppError)
	GetTemplate(ctx context.Context, id uuid.UUID) (*dto.RecurringEventResponse, *errors.AppError)
	ListTemplates(ctx context.Context, organizerID uuid.UUID) ([]dto.RecurringEventResponse, *errors.AppError)
	DeleteTemplate(ctx context.Context, id, actorID uuid.UUID) *errors.AppError
	PreviewOccurrences(ctx context.Context, id uuid.UUID, now time.Time) (*dto.UpcomingOccurrencesResponse, *errors.AppError)
	MaterializeNow(ctx context.Context, id, actorID uuid.UUID) (*dto.UpcomingOccurrencesResponse, *errors.AppError)
	SweepRecurringMaterialization(ctx context.Context, now time.Time) error
}

func NewRecurringService(
	templates repository.RecurringRepositoryInterface,
	events eventRepo.EventRepositoryInterface,
	locker redis.Locker,
) *RecurringService {
	return &RecurringService{templates: templates, events: events, locker: locker}
}

func (s *RecurringService) CreateTemplate(ctx context.Context, organizerID uuid.UUID, req *dto.CreateRecurringEventRequest) (*dto.RecurringEventResponse, *errors.AppError) {
	pattern := entity.RecurrencePattern(req.Pattern)
	switch pattern {
	case entity.PatternDaily, entity.PatternWeekly, entity.PatternMonthly, entity.PatternYearly:
	default:
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown recurrence pattern", nil)
	}

	if req.EndDate != nil && req.OccurrenceCount != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Set either end_date or occurrence_count, not both", nil)
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid start date, expected YYYY-MM-DD", err)
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, pErr := time.Parse(dateLayout, *req.EndDate)
		if pErr != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid end date, expected YYYY-MM-DD", pErr)
		}
		if parsed.Before(startDate) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "End date must not precede start date", nil)
		}
		endDate = &parsed
	}

	var mask entity.WeekdayMask
	if pattern == entity.PatternWeekly {
		for _, name := range req.DaysOfWeek {
			day, ok := weekdayNames[name]
			if !ok {
				return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("Unknown weekday %q", name), nil)
			}
			mask |= entity.MaskOf(day)
		}
		if mask == 0 {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Weekly pattern requires at least one weekday", nil)
		}
	}

	if pattern == entity.PatternMonthly && (req.DayOfMonth < 1 || req.DayOfMonth > 31) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Monthly pattern requires day_of_month in 1..31", nil)
	}
	if pattern == entity.PatternYearly {
		if req.Month < 1 || req.Month > 12 {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Yearly pattern requires month in 1..12", nil)
		}
		if req.DayOfYear < 1 || req.DayOfYear > 31 {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "Yearly pattern requires day_of_year in 1..31", nil)
		}
	}

	daysInAdvance := req.DaysInAdvance
	if daysInAdvance <= 0 {
		daysInAdvance = defaultDaysInAdvance
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "Asia/Ho_Chi_Minh"
	}
	if _, tzErr := time.LoadLocation(timezone); tzErr != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown timezone", tzErr)
	}

	created, cErr := s.templates.Create(ctx, &entity.RecurringEvent{
		OrganizerID:       organizerID,
		Title:             req.Title,
		EventType:         req.EventType,
		Pattern:           pattern,
		DaysOfWeek:        mask,
		DayOfMonth:        req.DayOfMonth,
		Month:             req.Month,
		DayOfYear:         req.DayOfYear,
		StartDate:         startDate,
		EndDate:           endDate,
		OccurrenceCount:   req.OccurrenceCount,
		AutoCreateEvents:  req.AutoCreateEvents,
		DaysInAdvance:     daysInAdvance,
		ScheduledTime:     req.ScheduledTime,
		Timezone:          timezone,
		ExpectedAttendees: req.ExpectedAttendees,
		BudgetPerPerson:   req.BudgetPerPerson,
	})
	if cErr != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create recurring event", cErr)
	}

	resp := dto.ToRecurringEventResponse(created)
	return &resp, nil
}

func (s *RecurringService) GetTemplate(ctx context.Context, id uuid.UUID) (*dto.RecurringEventResponse, *errors.AppError) {
	tmpl, err := s.templates.GetByID(ctx, id)
	if err != nil || tmpl == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Recurring event not found", err)
	}
	resp := dto.ToRecurringEventResponse(tmpl)
	return &resp, nil
}

func (s *RecurringService) ListTemplates(ctx context.Context, organizerID uuid.UUID) ([]dto.RecurringEventResponse, *errors.AppError) {
	templates, err := s.templates.ListByOrganizerID(ctx, organizerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list recurring events", err)
	}

	out := make([]dto.RecurringEventResponse, 0, len(templates))
	for i := range templates {
		out = append(out, dto.ToRecurringEventResponse(&templates[i]))
	}
	return out, nil
}

func (s *RecurringService) DeleteTemplate(ctx context.Context, id, actorID uuid.UUID) *errors.AppError {
	tmpl, err := s.templates.GetByID(ctx, id)
	if err != nil || tmpl == nil {
		return errors.NewAppError(errors.ErrNotFound, "Recurring event not found", err)
	}
	if tmpl.OrganizerID != actorID {
		return errors.NewAppError(errors.ErrForbidden, "Only the organizer can delete this template", nil)
	}

	// Already materialized events keep their back reference and live on.
	if _, dErr := s.templates.Delete(ctx, id); dErr != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to delete recurring event", dErr)
	}
	return nil
}

func (s *RecurringService) PreviewOccurrences(ctx context.Context, id uuid.UUID, now time.Time) (*dto.UpcomingOccurrencesResponse, *errors.AppError) {
	tmpl, err := s.templates.GetByID(ctx, id)
	if err != nil || tmpl == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Recurring event not found", err)
	}

	return &dto.UpcomingOccurrencesResponse{
		RecurringEventID: tmpl.ID,
		Occurrences:      OccurrencesBetween(tmpl, now, now.AddDate(0, 0, tmpl.DaysInAdvance)),
	}, nil
}

// MaterializeNow runs materialization for one template on demand, without
// waiting for the periodic sweep.
func (s *RecurringService) MaterializeNow(ctx context.Context, id, actorID uuid.UUID) (*dto.UpcomingOccurrencesResponse, *errors.AppError) {
	tmpl, err := s.templates.GetByID(ctx, id)
	if err != nil || tmpl == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Recurring event not found", err)
	}
	if tmpl.OrganizerID != actorID {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the organizer can materialize this template", nil)
	}

	now := time.Now()
	if mErr := s.materializeTemplate(ctx, tmpl, now); mErr != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Materialization failed", mErr)
	}

	return &dto.UpcomingOccurrencesResponse{
		RecurringEventID: tmpl.ID,
		Occurrences:      OccurrencesBetween(tmpl, now, now.AddDate(0, 0, tmpl.DaysInAdvance)),
	}, nil
}

// SweepRecurringMaterialization walks every active template and creates the
// occurrences inside its look-ahead window. The unique occurrence key makes
// duplicate creation impossible, so the sweep is safe to run concurrently;
// the per-template lock just avoids wasted work between overlapping runs.
func (s *RecurringService) SweepRecurringMaterialization(ctx context.Context, now time.Time) error {
	templates, err := s.templates.ListActive(ctx, now)
	if err != nil {
		return err
	}

	for i := range templates {
		tmpl := &templates[i]
		if err := s.materializeTemplate(ctx, tmpl, now); err != nil {
			logger.Error("RecurringService:Sweep:Materialize", "error", err, "template_id", tmpl.ID)
		}
	}
	return nil
}

func (s *RecurringService) materializeTemplate(ctx context.Context, tmpl *entity.RecurringEvent, now time.Time) error {
	release, ok, err := s.locker.Acquire(ctx, materializationLockKey(tmpl.ID), materializationLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		return nil // another worker holds this template
	}
	defer release()

	occurrences := OccurrencesBetween(tmpl, now, now.AddDate(0, 0, tmpl.DaysInAdvance))
	if len(occurrences) == 0 {
		return nil
	}

	for _, date := range occurrences {
		key := occurrenceKey(tmpl.ID, date)
		scheduledDate := date
		created, cErr := s.events.CreateMaterialized(ctx, &eventEntity.Event{
			OrganizerID:         tmpl.OrganizerID,
			Title:               tmpl.Title,
			Slug:                slug.Make(tmpl.Title) + "-" + utils.GenerateID(),
			EventType:           tmpl.EventType,
			Status:              eventEntity.EventStatusPlanning,
			ScheduledDate:       &scheduledDate,
			ScheduledTime:       tmpl.ScheduledTime,
			Timezone:            tmpl.Timezone,
			ExpectedAttendees:   tmpl.ExpectedAttendees,
			BudgetPerPerson:     tmpl.BudgetPerPerson,
			AcceptanceThreshold: constants.DefaultAcceptanceThreshold,
			RecurringEventID:    &tmpl.ID,
			OccurrenceKey:       &key,
		})
		if cErr != nil {
			// LastGeneratedAt stays untouched so the next run retries
			// the remaining occurrences; duplicates are absorbed by the key.
			return cErr
		}
		if created {
			logger.Info("RecurringService:Materialized",
				"template_id", tmpl.ID, "date", date.Format(dateLayout))
		}
	}

	return s.templates.SetLastGeneratedAt(ctx, tmpl.ID, now)
}

func materializationLockKey(templateID uuid.UUID) string {
	return fmt.Sprintf("recurring:%s:materialize", templateID)
}

// occurrenceKey is the per-occurrence dedupe key backing the unique index
func occurrenceKey(templateID uuid.UUID, date time.Time) string {
	sum := sha256.Sum256([]byte(templateID.String() + ":" + date.Format(dateLayout)))
	return hex.EncodeToString(sum[:])
}

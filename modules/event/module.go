package event

import (
	"hangout-api/core/config"
	"hangout-api/core/database"
	"hangout-api/core/middleware"
	"hangout-api/core/redis"
	"hangout-api/modules/event/controller"
	"hangout-api/modules/event/repository"
	"hangout-api/modules/event/router"
	"hangout-api/modules/event/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

// Services exposes the pieces the background worker drives directly.
type Services struct {
	Events       *service.EventService
	Votes        *service.VoteService
	Participants *service.ParticipantService
	Reminders    *service.ReminderService
	Ai           *service.AiService
}

// Init initializes the event module and registers routes
func Init(
	e *echo.Echo,
	db *database.Database,
	mw *middleware.Middleware,
	locker redis.Locker,
	asynqClient *asynq.Client,
	notifier service.Notifier,
) *Services {
	events := repository.NewEventRepository(*db)
	options := repository.NewOptionRepository(*db)
	votes := repository.NewVoteRepository(*db)
	participants := repository.NewParticipantRepository(*db)
	waitlist := repository.NewWaitlistRepository(*db)
	audits := repository.NewAuditRepository(*db)
	checkins := repository.NewCheckInRepository(*db)

	machine := service.NewStateMachine(db, events, audits)
	places := service.NewHTTPPlaceDirectory(config.Get().Places)
	analyzer := service.NewAsynqAnalyzer(asynqClient)

	eventSvc := service.NewEventService(events, options, participants, waitlist, audits, checkins, machine, notifier, places)
	voteSvc := service.NewVoteService(events, options, votes, participants, machine, notifier)
	participantSvc := service.NewParticipantService(events, participants, waitlist, locker, notifier)
	reminderSvc := service.NewReminderService(events, participants, notifier)
	aiSvc := service.NewAiService(events, options, analyzer, notifier)
	checkinSvc := service.NewCheckInService(events, participants, checkins)

	eventCtrl := controller.NewEventController(eventSvc, aiSvc)
	participationCtrl := controller.NewParticipationController(voteSvc, participantSvc, checkinSvc)

	rtr := router.NewEventRouter(eventCtrl, participationCtrl)
	rtr.Setup(e, mw)

	return &Services{
		Events:       eventSvc,
		Votes:        voteSvc,
		Participants: participantSvc,
		Reminders:    reminderSvc,
		Ai:           aiSvc,
	}
}

package router

import (
	"hangout-api/core/middleware"
	"hangout-api/modules/event/controller"

	"github.com/labstack/echo/v4"
)

// EventRouter handles event routes
type EventRouter struct {
	EventController         *controller.EventController
	ParticipationController *controller.ParticipationController
}

// NewEventRouter creates a new router
func NewEventRouter(events *controller.EventController, participation *controller.ParticipationController) *EventRouter {
	return &EventRouter{
		EventController:         events,
		ParticipationController: participation,
	}
}

// Setup registers event routes
func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	eventRoutes := privateRoutes.Group("/events", mw.AuthMiddleware())

	// Lifecycle
	eventRoutes.POST("", r.EventController.CreateEvent)
	eventRoutes.GET("", r.EventController.GetMyEvents)
	eventRoutes.GET("/:id", r.EventController.GetEvent)
	eventRoutes.POST("/:id/options", r.EventController.AddOption)
	eventRoutes.POST("/:id/open-voting", r.EventController.OpenVoting)
	eventRoutes.POST("/:id/reschedule", r.EventController.Reschedule)
	eventRoutes.POST("/:id/cancel", r.EventController.Cancel)
	eventRoutes.POST("/:id/complete", r.EventController.Complete)
	eventRoutes.GET("/:id/audit-log", r.EventController.GetAuditLog)

	// AI analysis
	eventRoutes.POST("/:id/ai-analysis", r.EventController.StartAiAnalysis)
	eventRoutes.PUT("/:id/ai-analysis/progress", r.EventController.UpdateAiProgress)
	eventRoutes.POST("/:id/ai-analysis/complete", r.EventController.CompleteAiAnalysis)

	// Voting
	eventRoutes.POST("/:id/votes", r.ParticipationController.CastVote)
	eventRoutes.GET("/:id/votes", r.ParticipationController.GetResults)
	eventRoutes.POST("/:id/force-decision", r.ParticipationController.ForceDecision)

	// Participants and waitlist
	eventRoutes.POST("/:id/participants/:userId", r.ParticipationController.Invite)
	eventRoutes.POST("/:id/respond", r.ParticipationController.Respond)
	eventRoutes.POST("/:id/leave", r.ParticipationController.Leave)
	eventRoutes.POST("/:id/waitlist/respond", r.ParticipationController.RespondToPromotion)

	// Check-in
	eventRoutes.POST("/:id/check-in", r.ParticipationController.CheckIn)
	eventRoutes.GET("/:id/check-ins", r.ParticipationController.ListCheckIns)
}

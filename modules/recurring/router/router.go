package router

import (
	"hangout-api/core/middleware"
	"hangout-api/modules/recurring/controller"

	"github.com/labstack/echo/v4"
)

// RecurringRouter handles recurring event routes
type RecurringRouter struct {
	RecurringController *controller.RecurringController
}

func NewRecurringRouter(recurringController *controller.RecurringController) *RecurringRouter {
	return &RecurringRouter{
		RecurringController: recurringController,
	}
}

// Setup registers recurring event routes
func (r *RecurringRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	routes := privateRoutes.Group("/recurring-events", mw.AuthMiddleware())

	routes.POST("", r.RecurringController.Create)
	routes.GET("", r.RecurringController.List)
	routes.GET("/:id", r.RecurringController.Get)
	routes.GET("/:id/occurrences", r.RecurringController.Preview)
	routes.POST("/:id/materialize", r.RecurringController.Materialize)
	routes.DELETE("/:id", r.RecurringController.Delete)
}

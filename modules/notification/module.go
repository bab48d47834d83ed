package notification

import (
	"hangout-api/core/database"
	"hangout-api/core/middleware"
	"hangout-api/modules/notification/controller"
	"hangout-api/modules/notification/repository"
	"hangout-api/modules/notification/router"
	"hangout-api/modules/notification/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the notification module and registers routes. The
// returned dispatcher is what the event engine delivers through.
func Init(e *echo.Echo, db *database.Database, mw *middleware.Middleware) *service.Dispatcher {
	repo := repository.NewNotificationRepository(*db)
	svc := service.NewNotificationService(repo)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Register(e, mw)

	return service.NewDispatcher(svc)
}

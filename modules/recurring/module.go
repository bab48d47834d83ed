package recurring

import (
	"hangout-api/core/database"
	"hangout-api/core/middleware"
	"hangout-api/core/redis"
	eventRepo "hangout-api/modules/event/repository"
	"hangout-api/modules/recurring/controller"
	"hangout-api/modules/recurring/repository"
	"hangout-api/modules/recurring/router"
	"hangout-api/modules/recurring/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the recurring module and registers routes
func Init(e *echo.Echo, db *database.Database, mw *middleware.Middleware, locker redis.Locker) *service.RecurringService {
	templates := repository.NewRecurringRepository(*db)
	events := eventRepo.NewEventRepository(*db)

	svc := service.NewRecurringService(templates, events, locker)
	ctrl := controller.NewRecurringController(svc)
	rtr := router.NewRecurringRouter(ctrl)

	rtr.Setup(e, mw)

	return svc
}

package controller

import (
	"net/http"
	"time"

	"hangout-api/core/constants"
	"hangout-api/core/controller"
	"hangout-api/core/errors"
	"hangout-api/core/utils"
	"hangout-api/modules/recurring/dto"
	"hangout-api/modules/recurring/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RecurringController handles recurring event template HTTP requests
type RecurringController struct {
	controller.BaseController
	RecurringService service.RecurringServiceInterface
}

func NewRecurringController(svc service.RecurringServiceInterface) *RecurringController {
	return &RecurringController{
		BaseController:   controller.NewBaseController(),
		RecurringService: svc,
	}
}

func getUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}

	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}

	return claims.UserID, nil
}

// Create handles POST /recurring-events
// @Summary Tạo lịch lặp
// @Description Tạo mẫu sự kiện lặp lại tự động sinh sự kiện con
// @Tags Recurring
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateRecurringEventRequest true "Thông tin lịch lặp"
// @Success 200 {object} dto.RecurringEventResponse
// @Failure 400 {object} errors.AppError
// @Router /private/recurring-events [post]
func (c *RecurringController) Create(ctx echo.Context) error {
	organizerID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateRecurringEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.RecurringService.CreateTemplate(ctx.Request().Context(), organizerID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Recurring event created")
}

// Get handles GET /recurring-events/:id
// @Summary Lấy thông tin lịch lặp
// @Tags Recurring
// @Security BearerAuth
// @Produce json
// @Param id path string true "Recurring Event ID"
// @Success 200 {object} dto.RecurringEventResponse
// @Failure 404 {object} errors.AppError
// @Router /private/recurring-events/{id} [get]
func (c *RecurringController) Get(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid recurring event ID")
	}

	result, appErr := c.RecurringService.GetTemplate(ctx.Request().Context(), id)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// List handles GET /recurring-events
// @Summary Danh sách lịch lặp
// @Tags Recurring
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.RecurringEventResponse
// @Router /private/recurring-events [get]
func (c *RecurringController) List(ctx echo.Context) error {
	organizerID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.RecurringService.ListTemplates(ctx.Request().Context(), organizerID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// Preview handles GET /recurring-events/:id/occurrences
// @Summary Xem trước các lần diễn ra
// @Description Tính các ngày sẽ sinh sự kiện trong cửa sổ look-ahead
// @Tags Recurring
// @Security BearerAuth
// @Produce json
// @Param id path string true "Recurring Event ID"
// @Success 200 {object} dto.UpcomingOccurrencesResponse
// @Router /private/recurring-events/{id}/occurrences [get]
func (c *RecurringController) Preview(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid recurring event ID")
	}

	result, appErr := c.RecurringService.PreviewOccurrences(ctx.Request().Context(), id, time.Now())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// Materialize handles POST /recurring-events/:id/materialize
// @Summary Sinh sự kiện ngay
// @Description Chạy sinh sự kiện cho mẫu này ngay thay vì chờ job định kỳ
// @Tags Recurring
// @Security BearerAuth
// @Produce json
// @Param id path string true "Recurring Event ID"
// @Success 200 {object} dto.UpcomingOccurrencesResponse
// @Failure 403 {object} errors.AppError
// @Router /private/recurring-events/{id}/materialize [post]
func (c *RecurringController) Materialize(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid recurring event ID")
	}

	result, appErr := c.RecurringService.MaterializeNow(ctx.Request().Context(), id, actorID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Materialization completed")
}

// Delete handles DELETE /recurring-events/:id
// @Summary Xóa lịch lặp
// @Description Xóa mẫu; các sự kiện đã sinh vẫn được giữ lại
// @Tags Recurring
// @Security BearerAuth
// @Produce json
// @Param id path string true "Recurring Event ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.AppError
// @Router /private/recurring-events/{id} [delete]
func (c *RecurringController) Delete(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid recurring event ID")
	}

	if appErr := c.RecurringService.DeleteTemplate(ctx.Request().Context(), id, actorID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

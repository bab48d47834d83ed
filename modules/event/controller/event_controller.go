package controller

import (
	"net/http"

	"hangout-api/core/constants"
	"hangout-api/core/controller"
	"hangout-api/core/errors"
	"hangout-api/core/params"
	"hangout-api/core/utils"
	"hangout-api/modules/event/dto"
	"hangout-api/modules/event/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// EventController handles event lifecycle HTTP requests
type EventController struct {
	controller.BaseController
	EventService service.EventServiceInterface
	AiService    service.AiServiceInterface
}

// NewEventController creates a new controller
func NewEventController(svc service.EventServiceInterface, ai service.AiServiceInterface) *EventController {
	return &EventController{
		BaseController: controller.NewBaseController(),
		EventService:   svc,
		AiService:      ai,
	}
}

// getUserIDFromContext extracts user ID from JWT context
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

// CreateEvent handles POST /events
// @Summary Tạo sự kiện
// @Description Tạo một sự kiện tụ họp mới, người tạo là organizer
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Thông tin sự kiện"
// @Success 200 {object} dto.EventResponse
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Router /private/events [post]
func (c *EventController) CreateEvent(ctx echo.Context) error {
	organizerID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.CreateEvent(ctx.Request().Context(), organizerID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Event created successfully")
}

// GetEvent handles GET /events/:id
// @Summary Lấy thông tin sự kiện
// @Description Lấy chi tiết sự kiện kèm options, participants và waitlist
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id} [get]
func (c *EventController) GetEvent(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.GetEvent(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// GetMyEvents handles GET /events
// @Summary Lấy danh sách sự kiện
// @Description Lấy danh sách sự kiện do người dùng tổ chức
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.EventResponse
// @Failure 401 {object} errors.AppError
// @Router /private/events [get]
func (c *EventController) GetMyEvents(ctx echo.Context) error {
	organizerID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	qp := params.NewQueryParams(ctx)
	result, appErr := c.EventService.GetMyEvents(ctx.Request().Context(), organizerID, *qp)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// AddOption handles POST /events/:id/options
// @Summary Thêm địa điểm ứng cử
// @Description Thêm một địa điểm vào danh sách bình chọn của sự kiện
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.AddOptionRequest true "Thông tin địa điểm"
// @Success 200 {object} dto.OptionResponse
// @Failure 400 {object} errors.AppError
// @Router /private/events/{id}/options [post]
func (c *EventController) AddOption(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.AddOptionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.AddPlaceOption(ctx.Request().Context(), eventID, actorID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Option added successfully")
}

// OpenVoting handles POST /events/:id/open-voting
// @Summary Mở bình chọn
// @Description Chuyển sự kiện sang trạng thái bình chọn với deadline
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.OpenVotingRequest true "Deadline bình chọn"
// @Success 200 {object} dto.EventResponse
// @Failure 422 {object} errors.AppError
// @Router /private/events/{id}/open-voting [post]
func (c *EventController) OpenVoting(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.OpenVotingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.OpenVoting(ctx.Request().Context(), eventID, actorID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Voting opened successfully")
}

// Reschedule handles POST /events/:id/reschedule
// @Summary Dời lịch sự kiện
// @Description Dời sự kiện sang ngày giờ mới, yêu cầu lý do
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.RescheduleEventRequest true "Lịch mới và lý do"
// @Success 200 {object} dto.EventResponse
// @Failure 422 {object} errors.AppError
// @Router /private/events/{id}/reschedule [post]
func (c *EventController) Reschedule(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.RescheduleEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.RescheduleEvent(ctx.Request().Context(), eventID, actorID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Event rescheduled successfully")
}

// Cancel handles POST /events/:id/cancel
// @Summary Hủy sự kiện
// @Description Hủy sự kiện, yêu cầu lý do, không thể hoàn tác
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.CancelEventRequest true "Lý do hủy"
// @Success 200 {object} dto.EventResponse
// @Failure 422 {object} errors.AppError
// @Router /private/events/{id}/cancel [post]
func (c *EventController) Cancel(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.CancelEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.CancelEvent(ctx.Request().Context(), eventID, actorID, req.Reason)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Event cancelled")
}

// Complete handles POST /events/:id/complete
// @Summary Hoàn thành sự kiện
// @Description Đánh dấu sự kiện đã diễn ra và ghi nhận vắng mặt
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 422 {object} errors.AppError
// @Router /private/events/{id}/complete [post]
func (c *EventController) Complete(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.CompleteEvent(ctx.Request().Context(), eventID, &actorID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Event completed")
}

// GetAuditLog handles GET /events/:id/audit-log
// @Summary Lịch sử thay đổi
// @Description Lấy toàn bộ lịch sử chuyển trạng thái của sự kiện
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.AuditLogResponse
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/audit-log [get]
func (c *EventController) GetAuditLog(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.GetAuditLog(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// StartAiAnalysis handles POST /events/:id/ai-analysis
// @Summary Bắt đầu phân tích AI
// @Description Gửi danh sách địa điểm cho AI phân tích và gợi ý
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/ai-analysis [post]
func (c *EventController) StartAiAnalysis(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	jobID, appErr := c.AiService.StartAnalysis(ctx.Request().Context(), eventID, actorID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, map[string]string{"job_id": jobID}, "Analysis started")
}

// UpdateAiProgress handles PUT /events/:id/ai-analysis/progress
// @Summary Cập nhật tiến độ phân tích
// @Description Callback từ worker AI báo tiến độ phân tích
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.AiProgressRequest true "Tiến độ"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id}/ai-analysis/progress [put]
func (c *EventController) UpdateAiProgress(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.AiProgressRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	if appErr := c.AiService.UpdateProgress(ctx.Request().Context(), eventID, &req); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// CompleteAiAnalysis handles POST /events/:id/ai-analysis/complete
// @Summary Kết thúc phân tích AI
// @Description Worker AI báo hoàn thành, giải phóng trạng thái phân tích
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} map[string]string
// @Router /private/events/{id}/ai-analysis/complete [post]
func (c *EventController) CompleteAiAnalysis(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	if appErr := c.AiService.CompleteAnalysis(ctx.Request().Context(), eventID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

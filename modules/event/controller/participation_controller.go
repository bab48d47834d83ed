package controller

import (
	"net/http"

	"hangout-api/core/controller"
	"hangout-api/core/errors"
	"hangout-api/modules/event/dto"
	"hangout-api/modules/event/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ParticipationController handles votes, RSVPs, waitlist and check-ins
type ParticipationController struct {
	controller.BaseController
	VoteService        service.VoteServiceInterface
	ParticipantService service.ParticipantServiceInterface
	CheckInService     service.CheckInServiceInterface
}

func NewParticipationController(
	votes service.VoteServiceInterface,
	participants service.ParticipantServiceInterface,
	checkins service.CheckInServiceInterface,
) *ParticipationController {
	return &ParticipationController{
		BaseController:     controller.NewBaseController(),
		VoteService:        votes,
		ParticipantService: participants,
		CheckInService:     checkins,
	}
}

// CastVote handles POST /events/:id/votes
// @Summary Bình chọn địa điểm
// @Description Ghi nhận phiếu bầu của người tham gia cho một địa điểm
// @Tags Participation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.CastVoteRequest true "Phiếu bầu"
// @Success 200 {object} dto.VoteResultResponse
// @Failure 409 {object} errors.AppError
// @Failure 422 {object} errors.AppError
// @Router /private/events/{id}/votes [post]
func (c *ParticipationController) CastVote(ctx echo.Context) error {
	voterID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.CastVoteRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.VoteService.CastVote(ctx.Request().Context(), eventID, voterID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Vote recorded")
}

// GetResults handles GET /events/:id/votes
// @Summary Kết quả bình chọn
// @Description Xem điểm số hiện tại của các địa điểm
// @Tags Participation
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.VoteResultResponse
// @Router /private/events/{id}/votes [get]
func (c *ParticipationController) GetResults(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.VoteService.GetResults(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// ForceDecision handles POST /events/:id/force-decision
// @Summary Chốt địa điểm
// @Description Organizer chốt địa điểm bất kể kết quả bình chọn
// @Tags Participation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.ForceDecisionRequest true "Địa điểm được chọn"
// @Success 200 {object} dto.VoteResultResponse
// @Failure 403 {object} errors.AppError
// @Router /private/events/{id}/force-decision [post]
func (c *ParticipationController) ForceDecision(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.ForceDecisionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	optionID, err := uuid.Parse(req.OptionID)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid option ID")
	}

	result, appErr := c.VoteService.ForceDecision(ctx.Request().Context(), eventID, optionID, actorID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Decision recorded")
}

// Invite handles POST /events/:id/participants/:userId
// @Summary Mời người tham gia
// @Description Organizer mời một người dùng vào sự kiện
// @Tags Participation
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Param userId path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/participants/{userId} [post]
func (c *ParticipationController) Invite(ctx echo.Context) error {
	actorID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	userID, err := uuid.Parse(ctx.Param("userId"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid user ID")
	}

	if appErr := c.ParticipantService.InviteParticipant(ctx.Request().Context(), eventID, actorID, userID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "invited"})
}

// Respond handles POST /events/:id/respond
// @Summary Phản hồi lời mời
// @Description Chấp nhận hoặc từ chối lời mời; sự kiện đầy sẽ vào waitlist
// @Tags Participation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.RespondInvitationRequest true "Phản hồi"
// @Success 200 {object} dto.ParticipantResponse
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/respond [post]
func (c *ParticipationController) Respond(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.RespondInvitationRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.ParticipantService.RespondToInvitation(ctx.Request().Context(), eventID, userID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Response recorded")
}

// Leave handles POST /events/:id/leave
// @Summary Rời sự kiện
// @Description Người tham gia rút khỏi sự kiện, ghế trống được nhường cho waitlist
// @Tags Participation
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} map[string]string
// @Router /private/events/{id}/leave [post]
func (c *ParticipationController) Leave(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	if appErr := c.ParticipantService.LeaveEvent(ctx.Request().Context(), eventID, userID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "left"})
}

// RespondToPromotion handles POST /events/:id/waitlist/respond
// @Summary Phản hồi đề nghị vào chỗ
// @Description Người trong waitlist nhận hoặc từ chối ghế được nhường
// @Tags Participation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.WaitlistRespondRequest true "Phản hồi"
// @Success 200 {object} map[string]string
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/waitlist/respond [post]
func (c *ParticipationController) RespondToPromotion(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.WaitlistRespondRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	if appErr := c.ParticipantService.RespondToPromotion(ctx.Request().Context(), eventID, userID, &req); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// CheckIn handles POST /events/:id/check-in
// @Summary Điểm danh
// @Description Ghi nhận có mặt tại sự kiện, điểm danh lặp lại không lỗi
// @Tags Participation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.CheckInRequest true "Phương thức điểm danh"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.AppError
// @Router /private/events/{id}/check-in [post]
func (c *ParticipationController) CheckIn(ctx echo.Context) error {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.CheckInRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	if appErr := c.CheckInService.RecordCheckIn(ctx.Request().Context(), eventID, userID, &req); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "checked_in"})
}

// ListCheckIns handles GET /events/:id/check-ins
// @Summary Danh sách điểm danh
// @Description Xem ai đã có mặt và ai vắng mặt
// @Tags Participation
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {array} entity.EventCheckIn
// @Router /private/events/{id}/check-ins [get]
func (c *ParticipationController) ListCheckIns(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.CheckInService.ListCheckIns(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

package service

import (
	"context"

	"hangout-api/core/constants"
	"hangout-api/modules/notification/dto"

	"github.com/google/uuid"
)

// Dispatcher adapts the notification store to the event engine's
// fire-and-forget delivery interface.
type Dispatcher struct {
	svc *NotificationService
}

func NewDispatcher(svc *NotificationService) *Dispatcher {
	return &Dispatcher{svc: svc}
}

func (d *Dispatcher) NotifyParticipant(ctx context.Context, userID, eventID uuid.UUID, kind string, data map[string]interface{}) error {
	title, message := renderKind(kind)

	payload := map[string]interface{}{"event_id": eventID.String()}
	for k, v := range data {
		payload[k] = v
	}

	return d.svc.Create(ctx, &dto.CreateNotificationRequest{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
		Data:    payload,
	})
}

func renderKind(kind string) (title, message string) {
	switch kind {
	case constants.NotificationKindReminder:
		return "Sắp đến giờ hẹn", "Sự kiện của bạn sắp bắt đầu, đừng quên tham gia nhé!"
	case constants.NotificationKindWaitlistPromotion:
		return "Có chỗ trống cho bạn", "Một chỗ vừa trống trong sự kiện bạn đang chờ. Phản hồi sớm để giữ chỗ."
	case constants.NotificationKindStatusChange:
		return "Sự kiện đã được chốt", "Địa điểm của sự kiện đã được quyết định. Xem chi tiết ngay."
	case constants.NotificationKindReschedule:
		return "Sự kiện đã dời lịch", "Sự kiện bạn tham gia đã thay đổi thời gian. Kiểm tra lịch mới."
	case constants.NotificationKindVotingOpened:
		return "Mở bình chọn địa điểm", "Hãy bình chọn địa điểm cho sự kiện trước khi hết hạn."
	case constants.NotificationKindUnresolvedDecision:
		return "Bình chọn chưa ngã ngũ", "Hết hạn bình chọn nhưng chưa đủ điều kiện chốt địa điểm. Bạn có thể tự chốt."
	case constants.NotificationKindAiTimedOut:
		return "Phân tích AI quá hạn", "Phân tích địa điểm chạy quá lâu và đã bị hủy. Bạn có thể thử lại."
	default:
		return "Thông báo", "Bạn có cập nhật mới về sự kiện."
	}
}

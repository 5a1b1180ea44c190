package get_unread

import (
	"context"

	"github.com/m04kA/SMC-LessonService/internal/service/messages/models"
)

type MessageService interface {
	GetUnread(ctx context.Context, viewerID int64) (*models.UnreadListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

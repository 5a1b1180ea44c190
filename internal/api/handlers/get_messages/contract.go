package get_messages

import (
	"context"

	"github.com/m04kA/SMC-LessonService/internal/service/messages/models"
)

type MessageService interface {
	GetMessages(ctx context.Context, bookingID, viewerID int64) (*models.MessagesResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

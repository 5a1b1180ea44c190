package mark_thread_read

import "context"

type MessageService interface {
	MarkRead(ctx context.Context, bookingID, viewerID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

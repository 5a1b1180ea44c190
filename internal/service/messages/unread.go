package messages

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// previewLength длина превью последнего сообщения в рунах
const previewLength = 140

// aggregateUnread оставляет переписки, где последнее сообщение собеседника новее отметки о прочтении.
// Переписка без отметки считается непрочитанной. Имена отправителей не заполняются. Результат отсортирован по времени сообщения, новые первыми
func aggregateUnread(
	latest map[int64]*domain.BookingMessage,
	markers map[int64]time.Time,
) []domain.UnreadBookingMessage {
	result := make([]domain.UnreadBookingMessage, 0, len(latest))
	for bookingID, msg := range latest {
		if msg == nil {
			continue
		}
		if readAt, ok := markers[bookingID]; ok && !msg.CreatedAt.After(readAt) {
			continue
		}

		result = append(result, domain.UnreadBookingMessage{
			BookingID:       bookingID,
			SenderID:        msg.SenderID,
			LatestMessage:   preview(msg.Content),
			LatestMessageAt: msg.CreatedAt,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LatestMessageAt.Equal(result[j].LatestMessageAt) {
			return result[i].BookingID > result[j].BookingID
		}
		return result[i].LatestMessageAt.After(result[j].LatestMessageAt)
	})
	return result
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewLength]) + "…"
}

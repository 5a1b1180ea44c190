package cache

import (
	"fmt"
	"time"
)

const (
	slotsPrefix  = "slots"
	unreadPrefix = "unread"
	dateLayout   = "2006-01-02"
)

// SlotsKey ключ кэша слотов инструктора за период дат
func SlotsKey(instructorID int64, from, to time.Time) string {
	return fmt.Sprintf("%s:%d:%s:%s", slotsPrefix, instructorID, from.Format(dateLayout), to.Format(dateLayout))
}

// SlotsPattern шаблон всех ключей слотов инструктора
func SlotsPattern(instructorID int64) string {
	return fmt.Sprintf("%s:%d:*", slotsPrefix, instructorID)
}

// UnreadKey ключ кэша непрочитанных сообщений пользователя
func UnreadKey(viewerID int64) string {
	return fmt.Sprintf("%s:%d", unreadPrefix, viewerID)
}

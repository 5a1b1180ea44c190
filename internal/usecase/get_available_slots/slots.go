package get_available_slots

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// generateSlots нарезает эффективные окна на слоты и убирает те, что пересекаются
// с активными бронированиями инструктора
//
// Пересечение проверяется по полуоткрытым интервалам:
// - Слот 10:00-11:00, бронирование 10:30-11:30 → слот убирается
// - Слот 11:00-12:00, бронирование 10:00-11:00 → слот остается (граничат)
func generateSlots(instructorID int64, windows []domain.Window, busy []*domain.Booking) []domain.TimeSlot {
	tiled := domain.TileWindows(instructorID, windows)

	slots := make([]domain.TimeSlot, 0, len(tiled))
	for _, slot := range tiled {
		if domain.HasConflict(slot.Interval(), busy, 0) {
			continue
		}
		slots = append(slots, slot)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	})

	return slots
}

// filterStartingFrom оставляет только слоты, начинающиеся не раньше notBefore
func filterStartingFrom(slots []domain.TimeSlot, notBefore time.Time) []domain.TimeSlot {
	result := make([]domain.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if !slot.StartTime.Before(notBefore) {
			result = append(result, slot)
		}
	}
	return result
}

// dateIn возвращает полночь календарной даты t в часовом поясе loc
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

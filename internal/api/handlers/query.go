package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/m04kA/SMC-LessonService/internal/domain"
)

// QueryDate разбирает необязательный параметр даты YYYY-MM-DD
// Пустой параметр возвращает nil без ошибки
func QueryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateFormat, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// QueryBool разбирает необязательный булев параметр
func QueryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

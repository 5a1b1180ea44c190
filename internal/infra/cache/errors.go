package cache

import "errors"

var (
	// ErrCacheMiss возвращается, когда ключа нет в кэше (или кэш выключен)
	ErrCacheMiss = errors.New("cache: miss")
)

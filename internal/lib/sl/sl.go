// Package sl содержит вспомогательные функции для логгера slog.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки.
//
//	log.Error("failed to toggle reaction", sl.Err(err))
//
// Для nil возвращается пустая строка, чтобы логирование не паниковало
// в ветках, где ошибка опциональна.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

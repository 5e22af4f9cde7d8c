// Package tz отвечает за часовой пояс и формат отображаемых дат.
package tz

import (
	"log/slog"
	"time"
)

// Formatter форматирует даты сообщений в настроенном часовом поясе.
type Formatter struct {
	loc    *time.Location
	layout string
	name   string
}

// New создает Formatter для названия пояса из базы IANA.
// Неизвестный пояс деградирует в UTC с предупреждением в лог,
// а не роняет приложение на старте.
func New(timezone, layout string, log *slog.Logger) *Formatter {
	if log == nil {
		log = slog.Default()
	}
	if layout == "" {
		layout = "2006-01-02 15:04:05 MST"
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warn("Unknown timezone, falling back to UTC", "timezone", timezone, "error", err)
		loc = time.UTC
	}

	return &Formatter{loc: loc, layout: layout, name: loc.String()}
}

// Format возвращает время в настроенном поясе и формате.
func (f *Formatter) Format(t time.Time) string {
	return t.In(f.loc).Format(f.layout)
}

// Location возвращает загруженный часовой пояс.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Name возвращает имя действующего пояса (после возможной деградации в UTC).
func (f *Formatter) Name() string {
	return f.name
}

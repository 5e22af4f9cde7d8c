// Package sizefmt форматирует количество байт в человекочитаемую величину.
package sizefmt

import "fmt"

var units = []string{"B", "KB", "MB", "GB"}

// Format возвращает строку вида "1.5 MB" с одним знаком после запятой.
// Используется только для диагностики, не для точных расчётов.
func Format(bytes int64) string {
	value := float64(bytes)
	for _, unit := range units {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f TB", value)
}

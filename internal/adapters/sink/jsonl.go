// Package sink накапливает разобранные посты в файле формата JSON Lines.
package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"telegram-post-parser/internal/domain"
)

// JSONLSink дописывает посты в файл, по одному JSON-объекту на строку.
// Реализует ports.Sink. Потокобезопасен: записи сериализуются мьютексом.
type JSONLSink struct {
	path  string
	mutex sync.Mutex
}

// NewJSONLSink создает JSONLSink для файла path. Пустой путь отключает
// накопление: Append становится no-op.
func NewJSONLSink(path string) *JSONLSink {
	return &JSONLSink{path: path}
}

// Append дописывает пост в конец файла. Файл открывается на каждую запись:
// поток сообщений редкий, зато строка либо записана целиком, либо нет.
func (s *JSONLSink) Append(post *domain.ParsedPost) error {
	if s.path == "" {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sink dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open sink file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append post: %w", err)
	}
	return nil
}

// ReadAll читает все посты из файла JSON Lines. Повреждённые строки
// пропускаются: обрыв записи не должен делать весь журнал нечитаемым.
func ReadAll(path string) ([]domain.ParsedPost, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sink file: %w", err)
	}
	defer f.Close()

	var posts []domain.ParsedPost
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var post domain.ParsedPost
		if err := json.Unmarshal(line, &post); err != nil {
			continue
		}
		posts = append(posts, post)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan sink file: %w", err)
	}
	return posts, nil
}

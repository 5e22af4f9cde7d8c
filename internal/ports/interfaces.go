package ports

import (
	"context"

	"telegram-post-parser/internal/domain"
)

// Extractor определяет интерфейс для извлечения сущностей из текста сообщения.
type Extractor interface {
	// ExtractStructured раскладывает структурированные аннотации по корзинам.
	ExtractStructured(text string, annotations []domain.RawAnnotation, enc domain.OffsetEncoding) domain.EntityBuckets
	// ExtractRegex извлекает сущности регулярными выражениями из чистого текста.
	ExtractRegex(text string) domain.EntityBuckets
	// Merge объединяет два списка с дедупликацией без учёта регистра.
	Merge(structured, regex []string) []string
}

// Classifier определяет интерфейс для классификации медиа-дескриптора.
type Classifier interface {
	Classify(desc domain.MediaDescriptor, messageID int) domain.MediaClass
}

// MediaFetcher — загрузка бинарного файла одного конкретного сообщения.
// Адаптер транспорта создаёт реализацию на каждое сообщение, замыкая в ней
// платформенные ссылки на файл; дескриптор остаётся чистым значением.
type MediaFetcher interface {
	// Fetch сохраняет медиа в dest и возвращает фактический путь к файлу.
	// Возвращённый путь — авторитетный источник размера и имени.
	// Никогда не перезаписывает существующий файл частично.
	Fetch(ctx context.Context, dest string) (string, error)
}

// Sender определяет интерфейс отправки результатов в лог-чат.
type Sender interface {
	// SendFile отправляет файл с HTML-подписью.
	SendFile(ctx context.Context, target string, path string, caption string) error
	// SendText отправляет HTML-текст без предпросмотра ссылок.
	SendText(ctx context.Context, target string, text string) error
}

// Renderer преобразует разобранный пост в строку разметки для показа человеку.
type Renderer interface {
	Render(post *domain.ParsedPost) string
}

// Sink — приёмник разобранных постов, по одной записи на вызов (append-only).
// Ядро гарантирует, что запись полностью заполнена, включая поля результата
// прикрепления, до вызова Append.
type Sink interface {
	Append(post *domain.ParsedPost) error
}

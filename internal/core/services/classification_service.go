package services

import (
	"fmt"
	"mime"

	"telegram-post-parser/internal/domain"
	"telegram-post-parser/internal/ports"
)

// Типы вложений без загружаемого бинарного файла. Движок прикрепления
// обязан направить их в метод none, не пытаясь скачивать.
var terminalMediaTypes = map[string]bool{
	"contact":  true,
	"location": true,
	"poll":     true,
	"venue":    true,
	"webpage":  true,
}

// Расширения по умолчанию на случай, когда MIME-таблица ничего не знает.
var defaultExtensions = map[string]string{
	"photo":      ".jpg",
	"video":      ".mp4",
	"video_note": ".mp4",
	"gif":        ".mp4",
	"audio":      ".mp3",
	"voice":      ".ogg",
	"document":   "",
}

// ClassificationServiceImpl реализует интерфейс Classifier.
// Сервис не хранит состояния и безопасен для одновременного использования.
type ClassificationServiceImpl struct{}

// NewClassificationService создает новый экземпляр ClassificationServiceImpl.
func NewClassificationService() ports.Classifier {
	return &ClassificationServiceImpl{}
}

// Classify нормализует дескриптор в единую таксономию типов.
// Приоритет определяется вариантом, а не MIME: для документов флаги
// атрибутов проверяются в фиксированном порядке
// sticker > animated > video > audio > обычный документ.
func (s *ClassificationServiceImpl) Classify(desc domain.MediaDescriptor, messageID int) domain.MediaClass {
	switch desc.Kind {
	case domain.MediaNone:
		return domain.MediaClass{}
	case domain.MediaPhoto:
		// Размер фото — приближение по наибольшему из доступных вариантов
		// разрешения; точный размер неизвестен до загрузки.
		return domain.MediaClass{
			Type:     "photo",
			Size:     desc.Size,
			FileName: synthesizeName("photo", messageID, desc.FileName, "image/jpeg", domain.StickerStatic),
			MimeType: "image/jpeg",
		}
	case domain.MediaContact:
		return terminalClass("contact")
	case domain.MediaLocation:
		return terminalClass("location")
	case domain.MediaPoll:
		return terminalClass("poll")
	case domain.MediaVenue:
		return terminalClass("venue")
	case domain.MediaWebPage:
		return terminalClass("webpage")
	case domain.MediaDocument:
		return s.classifyDocument(desc, messageID)
	default:
		// Нераспознанный вариант деградирует до generic-типа, а не падает.
		return domain.MediaClass{Type: "other"}
	}
}

func (s *ClassificationServiceImpl) classifyDocument(desc domain.MediaDescriptor, messageID int) domain.MediaClass {
	mediaType := "document"

	switch {
	case desc.IsSticker:
		mediaType = "sticker"
	case desc.IsAnimated:
		mediaType = "gif"
	case desc.IsVideo:
		if desc.IsRound {
			mediaType = "video_note"
		} else {
			mediaType = "video"
		}
	case desc.IsAudio:
		if desc.IsVoice {
			mediaType = "voice"
		} else {
			mediaType = "audio"
		}
	}

	return domain.MediaClass{
		Type:     mediaType,
		Size:     desc.Size,
		FileName: synthesizeName(mediaType, messageID, desc.FileName, desc.MimeType, desc.Sticker),
		MimeType: desc.MimeType,
		Duration: desc.Duration,
	}
}

func terminalClass(mediaType string) domain.MediaClass {
	return domain.MediaClass{Type: mediaType, Terminal: true}
}

// synthesizeName возвращает имя файла вложения. Если платформа имени не дала,
// синтезируется "{тип}_{messageID}{расширение}": расширение берётся из
// MIME-таблицы, для стикеров — по подвиду, иначе из фиксированных умолчаний.
func synthesizeName(mediaType string, messageID int, given, mimeType string, sticker domain.StickerKind) string {
	if given != "" {
		return given
	}

	ext := ""
	if mediaType == "sticker" {
		switch sticker {
		case domain.StickerAnimated:
			ext = ".tgs"
		case domain.StickerVideo:
			ext = ".webm"
		default:
			ext = ".webp"
		}
	} else {
		// Фиксированные умолчания важнее MIME-таблицы: её содержимое
		// зависит от ОС, а имена файлов должны быть детерминированными.
		ext = defaultExtensions[mediaType]
		if ext == "" {
			ext = extensionForMime(mimeType)
		}
	}

	return fmt.Sprintf("%s_%d%s", mediaType, messageID, ext)
}

func extensionForMime(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	// mime возвращает варианты в алфавитном порядке; берём первый.
	return exts[0]
}

// IsTerminalMediaType сообщает, относится ли тип к незагружаемому набору.
func IsTerminalMediaType(mediaType string) bool {
	return terminalMediaTypes[mediaType]
}

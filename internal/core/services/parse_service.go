package services

import (
	"time"

	"telegram-post-parser/internal/domain"
	"telegram-post-parser/internal/ports"
)

// ParseOption — функциональная опция для настройки ParseService.
type ParseOption func(*ParseService)

// WithDateFormatter устанавливает функцию форматирования дат
// (обычно это tz.Format с часовым поясом из конфигурации).
func WithDateFormatter(f func(time.Time) string) ParseOption {
	return func(s *ParseService) {
		if f != nil {
			s.formatDate = f
		}
	}
}

// ParseService — тонкий агрегатор: собирает выходы экстрактора и
// классификатора вместе с метаданными сообщения в один неизменяемый
// ParsedPost. Состояния между сообщениями не хранит.
type ParseService struct {
	extractor  ports.Extractor
	classifier ports.Classifier
	formatDate func(time.Time) string
}

// NewParseService создает новый экземпляр ParseService.
func NewParseService(extractor ports.Extractor, classifier ports.Classifier, opts ...ParseOption) *ParseService {
	s := &ParseService{
		extractor:  extractor,
		classifier: classifier,
		formatDate: func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04:05 MST")
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parse строит ParsedPost из платформо-нейтральных значений.
// Семантические корзины объединяются со структурированным приоритетом;
// стилевые корзины берутся только из аннотаций.
func (s *ParseService) Parse(meta domain.MessageMeta, text string, annotations []domain.RawAnnotation, media domain.MediaDescriptor) *domain.ParsedPost {
	structured := s.extractor.ExtractStructured(text, annotations, meta.Encoding)
	regex := s.extractor.ExtractRegex(text)

	class := s.classifier.Classify(media, meta.MessageID)

	post := &domain.ParsedPost{
		ChatType:     meta.ChatType,
		ChatTitle:    meta.ChatTitle,
		ChatUsername: meta.ChatUsername,
		ChatID:       meta.ChatID,
		MessageID:    meta.MessageID,

		SenderName:     meta.SenderName,
		SenderUsername: meta.SenderUsername,
		SenderID:       meta.SenderID,

		RawText:    text,
		TextLength: len([]rune(text)),

		URLs:               s.extractor.Merge(structured.URLs, regex.URLs),
		Hashtags:           s.extractor.Merge(structured.Hashtags, regex.Hashtags),
		Mentions:           s.extractor.Merge(structured.Mentions, regex.Mentions),
		Emails:             s.extractor.Merge(structured.Emails, regex.Emails),
		Phones:             s.extractor.Merge(structured.Phones, regex.Phones),
		BoldTexts:          structured.Bold,
		ItalicTexts:        structured.Italic,
		UnderlineTexts:     structured.Underline,
		StrikethroughTexts: structured.Strikethrough,
		CodeFragments:      structured.Code,
		SpoilerTexts:       structured.Spoiler,

		MediaType:     class.Type,
		MediaFileName: class.FileName,
		MediaFileSize: class.Size,
		MediaDuration: class.Duration,
		MediaMime:     class.MimeType,
		MediaTerminal: class.Terminal,

		ForwardedFrom:    meta.ForwardedFrom,
		ReplyToMessageID: meta.ReplyToID,
		GroupedID:        meta.GroupedID,
		ReactionsSummary: meta.Reactions,
		Views:            meta.Views,
		Forwards:         meta.Forwards,
	}

	if !meta.Date.IsZero() {
		post.Date = s.formatDate(meta.Date)
	}
	if !meta.ForwardDate.IsZero() {
		post.ForwardDate = s.formatDate(meta.ForwardDate)
	}

	// Предпросмотр веб-страницы — не медиа: тип обнуляется, а адрес
	// страницы поднимается в отдельные поля поста.
	if media.Kind == domain.MediaWebPage {
		post.HasWebpagePreview = true
		post.WebpageURL = media.WebPageURL
		post.MediaType = ""
		post.MediaTerminal = false
	}

	return post
}

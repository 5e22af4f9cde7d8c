package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-post-parser/internal/domain"
)

func TestParse(t *testing.T) {
	t.Run("полный пост на настоящих сервисах", func(t *testing.T) {
		service := NewParseService(NewExtractionService(), NewClassificationService())

		meta := domain.MessageMeta{
			ChatType:     "channel",
			ChatTitle:    "News",
			ChatUsername: "news_channel",
			ChatID:       -100123,
			MessageID:    500,
			Date:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			SenderName:   "News Bot",
			Encoding:     domain.EncodingUTF16,
		}
		text := "Breaking #news https://x.co cc @durov"
		anns := []domain.RawAnnotation{
			{Kind: domain.KindHashtag, Offset: 9, Length: 5},
			{Kind: domain.KindBold, Offset: 0, Length: 8},
		}
		media := domain.MediaDescriptor{Kind: domain.MediaPhoto, Size: 2048}

		post := service.Parse(meta, text, anns, media)

		require.NotNil(t, post)
		assert.Equal(t, "channel", post.ChatType)
		assert.Equal(t, 500, post.MessageID)
		assert.Equal(t, text, post.RawText)
		assert.Equal(t, len([]rune(text)), post.TextLength)

		// Структурированный хештег и регулярные находки сливаются без дублей.
		assert.Equal(t, []string{"#news"}, post.Hashtags)
		assert.Equal(t, []string{"https://x.co"}, post.URLs)
		assert.Equal(t, []string{"@durov"}, post.Mentions)
		assert.Equal(t, []string{"Breaking"}, post.BoldTexts)

		assert.Equal(t, "photo", post.MediaType)
		assert.Equal(t, "photo_500.jpg", post.MediaFileName)
		assert.Equal(t, "2024-03-01 12:00:00 UTC", post.Date)
	})

	t.Run("стилевые корзины только из аннотаций", func(t *testing.T) {
		extractor := &mockExtractor{
			structured: domain.EntityBuckets{Bold: []string{"from-ann"}},
			regex:      domain.EntityBuckets{Bold: []string{"never-here"}},
		}
		service := NewParseService(extractor, &mockClassifier{})

		post := service.Parse(domain.MessageMeta{}, "text", nil, domain.MediaDescriptor{})
		assert.Equal(t, []string{"from-ann"}, post.BoldTexts)
	})

	t.Run("предпросмотр веб-страницы не считается медиа", func(t *testing.T) {
		service := NewParseService(NewExtractionService(), NewClassificationService())

		media := domain.MediaDescriptor{
			Kind:       domain.MediaWebPage,
			WebPageURL: "https://example.com/article",
		}
		post := service.Parse(domain.MessageMeta{MessageID: 3}, "see link", nil, media)

		assert.True(t, post.HasWebpagePreview)
		assert.Equal(t, "https://example.com/article", post.WebpageURL)
		assert.Empty(t, post.MediaType)
		assert.False(t, post.MediaTerminal)
	})

	t.Run("нулевые даты остаются пустыми строками", func(t *testing.T) {
		service := NewParseService(NewExtractionService(), NewClassificationService())

		post := service.Parse(domain.MessageMeta{MessageID: 4}, "", nil, domain.MediaDescriptor{})
		assert.Empty(t, post.Date)
		assert.Empty(t, post.ForwardDate)
	})

	t.Run("пользовательский форматтер дат", func(t *testing.T) {
		service := NewParseService(
			NewExtractionService(),
			NewClassificationService(),
			WithDateFormatter(func(t time.Time) string { return t.Format("02.01.2006") }),
		)

		meta := domain.MessageMeta{
			MessageID:   5,
			Date:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			ForwardDate: time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC),
		}
		post := service.Parse(meta, "", nil, domain.MediaDescriptor{})

		assert.Equal(t, "01.03.2024", post.Date)
		assert.Equal(t, "28.02.2024", post.ForwardDate)
	})

	t.Run("метаданные пересылки и реакций переносятся в пост", func(t *testing.T) {
		service := NewParseService(NewExtractionService(), NewClassificationService())

		meta := domain.MessageMeta{
			MessageID:     6,
			ForwardedFrom: "Original Channel",
			ReplyToID:     42,
			GroupedID:     777,
			Reactions:     "👍 12, ❤ 3",
			Views:         1000,
			Forwards:      15,
		}
		post := service.Parse(meta, "", nil, domain.MediaDescriptor{})

		assert.Equal(t, "Original Channel", post.ForwardedFrom)
		assert.Equal(t, 42, post.ReplyToMessageID)
		assert.Equal(t, int64(777), post.GroupedID)
		assert.Equal(t, "👍 12, ❤ 3", post.ReactionsSummary)
		assert.Equal(t, 1000, post.Views)
		assert.Equal(t, 15, post.Forwards)
	})
}

func TestApplyMediaResult(t *testing.T) {
	post := &domain.ParsedPost{MessageID: 1}

	post.ApplyMediaResult(&domain.MediaResult{
		Method:     domain.MethodBoth,
		LocalPath:  "/tmp/photo_1.jpg",
		PublicLink: "https://t.me/channel/1",
	})

	assert.Equal(t, "/tmp/photo_1.jpg", post.DownloadedPath)
	assert.Equal(t, "both", post.DownloadMethod)
	assert.Equal(t, "https://t.me/channel/1", post.PublicLink)

	post.ApplyMediaResult(nil)
	assert.Equal(t, "both", post.DownloadMethod, "nil-результат ничего не меняет")
}

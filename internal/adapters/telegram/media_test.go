package telegram

import (
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-post-parser/internal/domain"
)

func TestMapMedia(t *testing.T) {
	t.Run("отсутствие медиа", func(t *testing.T) {
		desc, loc := MapMedia(nil)
		assert.Equal(t, domain.MediaNone, desc.Kind)
		assert.Nil(t, loc)

		desc, loc = MapMedia(&tg.MessageMediaEmpty{})
		assert.Equal(t, domain.MediaNone, desc.Kind)
		assert.Nil(t, loc)
	})

	t.Run("фото: наибольший вариант разрешения", func(t *testing.T) {
		media := &tg.MessageMediaPhoto{
			Photo: &tg.Photo{
				ID:            111,
				AccessHash:    222,
				FileReference: []byte{1, 2},
				Sizes: []tg.PhotoSizeClass{
					&tg.PhotoSize{Type: "s", Size: 1000},
					&tg.PhotoSize{Type: "y", Size: 90000},
					&tg.PhotoSizeProgressive{Type: "w", Sizes: []int{5000, 120000}},
				},
			},
		}

		desc, loc := MapMedia(media)
		assert.Equal(t, domain.MediaPhoto, desc.Kind)
		assert.Equal(t, int64(120000), desc.Size)

		photoLoc, ok := loc.(*tg.InputPhotoFileLocation)
		require.True(t, ok)
		assert.Equal(t, int64(111), photoLoc.ID)
		assert.Equal(t, "w", photoLoc.ThumbSize)
	})

	t.Run("пустое фото деградирует в отсутствие медиа", func(t *testing.T) {
		desc, loc := MapMedia(&tg.MessageMediaPhoto{Photo: &tg.PhotoEmpty{}})
		assert.Equal(t, domain.MediaNone, desc.Kind)
		assert.Nil(t, loc)
	})

	t.Run("документ с именем файла", func(t *testing.T) {
		media := &tg.MessageMediaDocument{
			Document: &tg.Document{
				ID:       333,
				Size:     2048,
				MimeType: "application/pdf",
				Attributes: []tg.DocumentAttributeClass{
					&tg.DocumentAttributeFilename{FileName: "report.pdf"},
				},
			},
		}

		desc, loc := MapMedia(media)
		assert.Equal(t, domain.MediaDocument, desc.Kind)
		assert.Equal(t, "report.pdf", desc.FileName)
		assert.Equal(t, int64(2048), desc.Size)
		assert.False(t, desc.IsVideo)

		docLoc, ok := loc.(*tg.InputDocumentFileLocation)
		require.True(t, ok)
		assert.Equal(t, int64(333), docLoc.ID)
	})

	t.Run("голосовое сообщение", func(t *testing.T) {
		media := &tg.MessageMediaDocument{
			Document: &tg.Document{
				MimeType: "audio/ogg",
				Attributes: []tg.DocumentAttributeClass{
					&tg.DocumentAttributeAudio{Voice: true, Duration: 14},
				},
			},
		}

		desc, _ := MapMedia(media)
		assert.True(t, desc.IsAudio)
		assert.True(t, desc.IsVoice)
		assert.Equal(t, 14, desc.Duration)
	})

	t.Run("круглое видео", func(t *testing.T) {
		media := &tg.MessageMediaDocument{
			Document: &tg.Document{
				MimeType: "video/mp4",
				Attributes: []tg.DocumentAttributeClass{
					&tg.DocumentAttributeVideo{RoundMessage: true, Duration: 9},
				},
			},
		}

		desc, _ := MapMedia(media)
		assert.True(t, desc.IsVideo)
		assert.True(t, desc.IsRound)
		assert.Equal(t, 9, desc.Duration)
	})

	t.Run("подвиды стикеров по MIME", func(t *testing.T) {
		testCases := []struct {
			mime string
			want domain.StickerKind
		}{
			{"image/webp", domain.StickerStatic},
			{"application/x-tgsticker", domain.StickerAnimated},
			{"video/webm", domain.StickerVideo},
		}
		for _, tc := range testCases {
			media := &tg.MessageMediaDocument{
				Document: &tg.Document{
					MimeType: tc.mime,
					Attributes: []tg.DocumentAttributeClass{
						&tg.DocumentAttributeSticker{},
					},
				},
			}
			desc, _ := MapMedia(media)
			assert.True(t, desc.IsSticker)
			assert.Equal(t, tc.want, desc.Sticker, tc.mime)
		}
	})

	t.Run("вложения без бинарника не имеют адреса файла", func(t *testing.T) {
		testCases := []struct {
			media tg.MessageMediaClass
			want  domain.MediaKind
		}{
			{&tg.MessageMediaContact{}, domain.MediaContact},
			{&tg.MessageMediaGeo{}, domain.MediaLocation},
			{&tg.MessageMediaGeoLive{}, domain.MediaLocation},
			{&tg.MessageMediaPoll{}, domain.MediaPoll},
			{&tg.MessageMediaVenue{}, domain.MediaVenue},
		}
		for _, tc := range testCases {
			desc, loc := MapMedia(tc.media)
			assert.Equal(t, tc.want, desc.Kind)
			assert.Nil(t, loc)
		}
	})

	t.Run("предпросмотр веб-страницы несёт адрес страницы", func(t *testing.T) {
		media := &tg.MessageMediaWebPage{
			Webpage: &tg.WebPage{URL: "https://example.com/article"},
		}

		desc, loc := MapMedia(media)
		assert.Equal(t, domain.MediaWebPage, desc.Kind)
		assert.Equal(t, "https://example.com/article", desc.WebPageURL)
		assert.Nil(t, loc)
	})

	t.Run("неизвестный вариант протокола деградирует в other", func(t *testing.T) {
		desc, loc := MapMedia(&tg.MessageMediaDice{})
		assert.Equal(t, domain.MediaOther, desc.Kind)
		assert.Nil(t, loc)
	})
}

func TestMapReactions(t *testing.T) {
	t.Run("пустые реакции", func(t *testing.T) {
		assert.Empty(t, MapReactions(tg.MessageReactions{}))
	})

	t.Run("счётчики сворачиваются в строку", func(t *testing.T) {
		got := MapReactions(tg.MessageReactions{
			Results: []tg.ReactionCount{
				{Reaction: &tg.ReactionEmoji{Emoticon: "👍"}, Count: 12},
				{Reaction: &tg.ReactionEmoji{Emoticon: "❤"}, Count: 3},
				{Reaction: &tg.ReactionCustomEmoji{DocumentID: 1}, Count: 5},
			},
		})
		assert.Equal(t, "👍 12, ❤ 3", got, "кастомные эмодзи пропускаются")
	})
}

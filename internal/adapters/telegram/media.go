package telegram

import (
	"fmt"
	"strings"

	"github.com/gotd/td/tg"

	"telegram-post-parser/internal/domain"
)

// MapMedia переводит вложение MTProto в дескриптор ядра и адрес файла
// для последующей загрузки. Для вложений без бинарника (контакт, опрос
// и т.д.) адрес равен nil.
func MapMedia(media tg.MessageMediaClass) (domain.MediaDescriptor, tg.InputFileLocationClass) {
	switch m := media.(type) {
	case nil, *tg.MessageMediaEmpty:
		return domain.MediaDescriptor{Kind: domain.MediaNone}, nil

	case *tg.MessageMediaPhoto:
		photo, ok := m.Photo.(*tg.Photo)
		if !ok {
			return domain.MediaDescriptor{Kind: domain.MediaNone}, nil
		}
		size, thumbType := largestPhotoSize(photo.Sizes)
		desc := domain.MediaDescriptor{
			Kind: domain.MediaPhoto,
			Size: int64(size),
		}
		loc := &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     thumbType,
		}
		return desc, loc

	case *tg.MessageMediaDocument:
		doc, ok := m.Document.(*tg.Document)
		if !ok {
			return domain.MediaDescriptor{Kind: domain.MediaNone}, nil
		}
		desc := describeDocument(doc)
		loc := &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}
		return desc, loc

	case *tg.MessageMediaContact:
		return domain.MediaDescriptor{Kind: domain.MediaContact}, nil
	case *tg.MessageMediaGeo, *tg.MessageMediaGeoLive:
		return domain.MediaDescriptor{Kind: domain.MediaLocation}, nil
	case *tg.MessageMediaPoll:
		return domain.MediaDescriptor{Kind: domain.MediaPoll}, nil
	case *tg.MessageMediaVenue:
		return domain.MediaDescriptor{Kind: domain.MediaVenue}, nil

	case *tg.MessageMediaWebPage:
		desc := domain.MediaDescriptor{Kind: domain.MediaWebPage}
		if page, ok := m.Webpage.(*tg.WebPage); ok {
			desc.WebPageURL = page.URL
		}
		return desc, nil

	default:
		// Игры, счета, кубики и будущие варианты протокола.
		return domain.MediaDescriptor{Kind: domain.MediaOther}, nil
	}
}

// describeDocument переносит атрибуты документа в флаги дескриптора.
func describeDocument(doc *tg.Document) domain.MediaDescriptor {
	desc := domain.MediaDescriptor{
		Kind:     domain.MediaDocument,
		Size:     doc.Size,
		MimeType: doc.MimeType,
	}

	for _, attr := range doc.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeFilename:
			desc.FileName = a.FileName
		case *tg.DocumentAttributeSticker:
			desc.IsSticker = true
			desc.Sticker = stickerKind(doc.MimeType)
		case *tg.DocumentAttributeAnimated:
			desc.IsAnimated = true
		case *tg.DocumentAttributeVideo:
			desc.IsVideo = true
			desc.IsRound = a.RoundMessage
			desc.Duration = int(a.Duration)
		case *tg.DocumentAttributeAudio:
			desc.IsAudio = true
			desc.IsVoice = a.Voice
			desc.Duration = a.Duration
		}
	}

	return desc
}

// stickerKind определяет подвид стикера по MIME-типу документа.
func stickerKind(mimeType string) domain.StickerKind {
	switch mimeType {
	case "application/x-tgsticker":
		return domain.StickerAnimated
	case "video/webm":
		return domain.StickerVideo
	default:
		return domain.StickerStatic
	}
}

// largestPhotoSize выбирает наибольший из доступных вариантов разрешения.
// Возвращаемый размер — приближение: точный известен только после загрузки.
func largestPhotoSize(sizes []tg.PhotoSizeClass) (int, string) {
	best := 0
	bestType := ""
	for _, s := range sizes {
		switch size := s.(type) {
		case *tg.PhotoSize:
			if size.Size > best {
				best = size.Size
				bestType = size.Type
			}
		case *tg.PhotoSizeProgressive:
			for _, b := range size.Sizes {
				if b > best {
					best = b
					bestType = size.Type
				}
			}
		}
	}
	return best, bestType
}

// MapReactions сворачивает счётчики реакций в строку вида "👍 12, ❤ 3".
func MapReactions(reactions tg.MessageReactions) string {
	if len(reactions.Results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(reactions.Results))
	for _, r := range reactions.Results {
		emoji, ok := r.Reaction.(*tg.ReactionEmoji)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d", emoji.Emoticon, r.Count))
	}
	return strings.Join(parts, ", ")
}

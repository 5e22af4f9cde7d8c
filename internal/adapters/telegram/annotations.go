// Package telegram транслирует типы MTProto в платформо-нейтральные
// значения ядра и обратно. Ядро никогда не видит типы gotd.
package telegram

import (
	"strings"

	"github.com/gotd/td/tg"

	"telegram-post-parser/internal/domain"
)

// MapAnnotations переводит структурированные сущности MTProto в аннотации ядра.
// Смещения остаются в кодовых единицах UTF-16, как их считает платформа.
// users нужен для KindMentionName: по идентификатору достаётся отображаемое имя.
func MapAnnotations(entities []tg.MessageEntityClass, users map[int64]*tg.User) []domain.RawAnnotation {
	if len(entities) == 0 {
		return nil
	}

	out := make([]domain.RawAnnotation, 0, len(entities))
	for _, entity := range entities {
		ann := domain.RawAnnotation{
			Offset: entity.GetOffset(),
			Length: entity.GetLength(),
		}

		switch e := entity.(type) {
		case *tg.MessageEntityURL:
			ann.Kind = domain.KindURL
		case *tg.MessageEntityTextURL:
			ann.Kind = domain.KindTextURL
			ann.URL = e.URL
		case *tg.MessageEntityHashtag:
			ann.Kind = domain.KindHashtag
		case *tg.MessageEntityMention:
			ann.Kind = domain.KindMention
		case *tg.MessageEntityMentionName:
			ann.Kind = domain.KindMentionName
			ann.UserID = e.UserID
			ann.UserName = displayName(users[e.UserID])
		case *tg.MessageEntityEmail:
			ann.Kind = domain.KindEmail
		case *tg.MessageEntityPhone:
			ann.Kind = domain.KindPhone
		case *tg.MessageEntityBold:
			ann.Kind = domain.KindBold
		case *tg.MessageEntityItalic:
			ann.Kind = domain.KindItalic
		case *tg.MessageEntityUnderline:
			ann.Kind = domain.KindUnderline
		case *tg.MessageEntityStrike:
			ann.Kind = domain.KindStrikethrough
		case *tg.MessageEntityCode:
			ann.Kind = domain.KindCode
		case *tg.MessageEntityPre:
			ann.Kind = domain.KindPre
		case *tg.MessageEntitySpoiler:
			ann.Kind = domain.KindSpoiler
		default:
			// Банковские карты, кастомные эмодзи и прочее ядру не нужны.
			continue
		}

		out = append(out, ann)
	}

	return out
}

// displayName собирает отображаемое имя пользователя из имени и фамилии.
func displayName(user *tg.User) string {
	if user == nil {
		return ""
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" && user.Username != "" {
		name = "@" + user.Username
	}
	return name
}

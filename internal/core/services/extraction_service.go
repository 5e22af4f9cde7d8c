package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"telegram-post-parser/internal/domain"
	"telegram-post-parser/internal/ports"
)

// Регулярные выражения запасного сканера. Они намеренно воспроизводят
// шаблоны исходной системы: простой текст без платформенных аннотаций
// всё равно должен давать обнаруживаемые ссылки и теги.
var (
	reURL     = regexp.MustCompile(`(?i)https?://[^\s<>"']+`)
	reEmail   = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	rePhone   = regexp.MustCompile(`\+?[(]?[0-9]{1,4}[)]?[-\s./0-9]{6,15}`)
	reHashtag = regexp.MustCompile(`#[A-Za-zА-Яа-яёЁІіЇїЄєҐґ0-9_]+`)
	reMention = regexp.MustCompile(`@[A-Za-z0-9_]{3,}`)
)

// ExtractionServiceImpl реализует интерфейс Extractor.
// Сервис не хранит состояния и безопасен для одновременного использования.
type ExtractionServiceImpl struct{}

// NewExtractionService создает новый экземпляр ExtractionServiceImpl.
func NewExtractionService() ports.Extractor {
	return &ExtractionServiceImpl{}
}

// ExtractStructured раскладывает структурированные аннотации по корзинам.
// Неизвестные виды игнорируются; любая некорректная аннотация (выход за
// границы текста, отрицательная длина) пропускается, не портя остальные
// корзины. Сервис никогда не возвращает ошибку.
func (s *ExtractionServiceImpl) ExtractStructured(text string, annotations []domain.RawAnnotation, enc domain.OffsetEncoding) domain.EntityBuckets {
	buckets := emptyBuckets()
	if text == "" || len(annotations) == 0 {
		return buckets
	}

	slicer := newSlicer(text, enc)

	for _, ann := range annotations {
		fragment, ok := slicer.slice(ann.Offset, ann.Length)
		if !ok {
			continue
		}

		switch ann.Kind {
		case domain.KindURL:
			buckets.URLs = append(buckets.URLs, fragment)
		case domain.KindTextURL:
			// Явная цель ссылки важнее видимого фрагмента.
			if ann.URL != "" {
				buckets.URLs = append(buckets.URLs, ann.URL)
			} else {
				buckets.URLs = append(buckets.URLs, fragment)
			}
		case domain.KindHashtag:
			buckets.Hashtags = append(buckets.Hashtags, fragment)
		case domain.KindMention:
			buckets.Mentions = append(buckets.Mentions, fragment)
		case domain.KindMentionName:
			// Упоминание по идентификатору: имя, если оно известно,
			// иначе запасной вариант id:<идентификатор>.
			if ann.UserName != "" {
				buckets.Mentions = append(buckets.Mentions, ann.UserName)
			} else {
				buckets.Mentions = append(buckets.Mentions, fmt.Sprintf("id:%d", ann.UserID))
			}
		case domain.KindEmail:
			buckets.Emails = append(buckets.Emails, fragment)
		case domain.KindPhone:
			buckets.Phones = append(buckets.Phones, fragment)
		case domain.KindBold:
			buckets.Bold = append(buckets.Bold, fragment)
		case domain.KindItalic:
			buckets.Italic = append(buckets.Italic, fragment)
		case domain.KindUnderline:
			buckets.Underline = append(buckets.Underline, fragment)
		case domain.KindStrikethrough:
			buckets.Strikethrough = append(buckets.Strikethrough, fragment)
		case domain.KindCode, domain.KindPre:
			buckets.Code = append(buckets.Code, fragment)
		case domain.KindSpoiler:
			buckets.Spoiler = append(buckets.Spoiler, fragment)
		default:
			// Неизвестный вид аннотации — пропускаем.
		}
	}

	return buckets
}

// ExtractRegex извлекает сущности из чистого текста регулярными выражениями.
// Заполняются только семантические корзины: стили регулярными выражениями
// восстановить невозможно.
func (s *ExtractionServiceImpl) ExtractRegex(text string) domain.EntityBuckets {
	buckets := emptyBuckets()
	if text == "" {
		return buckets
	}

	buckets.URLs = appendMatches(buckets.URLs, reURL.FindAllString(text, -1))
	buckets.Hashtags = appendMatches(buckets.Hashtags, reHashtag.FindAllString(text, -1))
	buckets.Mentions = appendMatches(buckets.Mentions, reMention.FindAllString(text, -1))
	buckets.Emails = appendMatches(buckets.Emails, reEmail.FindAllString(text, -1))
	buckets.Phones = appendMatches(buckets.Phones, rePhone.FindAllString(text, -1))

	return buckets
}

// Merge объединяет структурированные и регулярные результаты:
// конкатенация structured-затем-regex, дедупликация по обрезанному значению
// без учёта регистра, первое вхождение побеждает и сохраняет свой регистр.
// Операция идемпотентна при повторном применении к собственному результату.
func (s *ExtractionServiceImpl) Merge(structured, regex []string) []string {
	seen := make(map[string]struct{}, len(structured)+len(regex))
	out := make([]string, 0, len(structured)+len(regex))

	for _, item := range append(append([]string{}, structured...), regex...) {
		trimmed := strings.TrimSpace(item)
		key := strings.ToLower(trimmed)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}

	return out
}

func emptyBuckets() domain.EntityBuckets {
	return domain.EntityBuckets{
		URLs:          []string{},
		Hashtags:      []string{},
		Mentions:      []string{},
		Emails:        []string{},
		Phones:        []string{},
		Bold:          []string{},
		Italic:        []string{},
		Underline:     []string{},
		Strikethrough: []string{},
		Code:          []string{},
		Spoiler:       []string{},
	}
}

func appendMatches(dst []string, matches []string) []string {
	return append(dst, matches...)
}

// slicer режет текст по смещениям в заявленной платформой кодировке.
// Текст декодируется один раз на сообщение, а не на каждую аннотацию.
type slicer struct {
	utf16Units []uint16
	runes      []rune
	enc        domain.OffsetEncoding
}

func newSlicer(text string, enc domain.OffsetEncoding) *slicer {
	sl := &slicer{enc: enc}
	switch enc {
	case domain.EncodingUTF16:
		sl.utf16Units = utf16.Encode([]rune(text))
	default:
		sl.runes = []rune(text)
	}
	return sl
}

// slice возвращает фрагмент [offset, offset+length) и признак корректности
// границ. Смещения за пределами текста не считаются ошибкой всего разбора.
func (sl *slicer) slice(offset, length int) (string, bool) {
	if offset < 0 || length < 0 {
		return "", false
	}
	end := offset + length

	if sl.enc == domain.EncodingUTF16 {
		if end > len(sl.utf16Units) {
			return "", false
		}
		return string(utf16.Decode(sl.utf16Units[offset:end])), true
	}

	if end > len(sl.runes) {
		return "", false
	}
	return string(sl.runes[offset:end]), true
}

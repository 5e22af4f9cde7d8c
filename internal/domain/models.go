package domain

import "time"

// OffsetEncoding определяет, в каких единицах платформа считает смещения
// структурированных аннотаций. MTProto присылает смещения в кодовых единицах
// UTF-16; некоторые источники используют кодовые точки. Неверная интерпретация
// молча режет многобайтовый текст.
type OffsetEncoding int

const (
	// EncodingUTF16 — смещения в кодовых единицах UTF-16 (MTProto, Bot API).
	EncodingUTF16 OffsetEncoding = iota
	// EncodingCodepoint — смещения в кодовых точках Unicode.
	EncodingCodepoint
)

// AnnotationKind — семантическая роль фрагмента текста, размеченного платформой.
type AnnotationKind int

const (
	KindUnknown AnnotationKind = iota
	KindURL
	KindTextURL
	KindHashtag
	KindMention
	KindMentionName
	KindEmail
	KindPhone
	KindBold
	KindItalic
	KindUnderline
	KindStrikethrough
	KindCode
	KindPre
	KindSpoiler
)

// RawAnnotation — платформо-нейтральное представление одной структурированной
// аннотации над текстом сообщения. Значение неизменяемо и не хранит ссылок
// на объекты платформенного клиента.
type RawAnnotation struct {
	Kind   AnnotationKind
	Offset int
	Length int
	// URL заполняется для KindTextURL: явная цель ссылки вместо фрагмента.
	URL string
	// UserName и UserID заполняются для KindMentionName: отображаемое имя
	// упомянутого пользователя либо его идентификатор для запасного варианта.
	UserName string
	UserID   int64
}

// EntityBuckets — результат извлечения сущностей, сгруппированный по корзинам.
// Инвариант: все корзины всегда присутствуют (пустой срез, если ничего не найдено).
type EntityBuckets struct {
	URLs          []string
	Hashtags      []string
	Mentions      []string
	Emails        []string
	Phones        []string
	Bold          []string
	Italic        []string
	Underline     []string
	Strikethrough []string
	Code          []string
	Spoiler       []string
}

// MediaKind — вариант медиа-вложения после трансляции адаптером.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaPhoto
	MediaDocument
	MediaContact
	MediaLocation
	MediaPoll
	MediaVenue
	MediaWebPage
	MediaOther
)

// StickerKind — подвид стикера, определяет расширение синтезируемого имени файла.
type StickerKind int

const (
	StickerStatic   StickerKind = iota // .webp
	StickerAnimated                    // .tgs
	StickerVideo                       // .webm
)

// MediaDescriptor — нормализованное описание вложения до загрузки.
// Для документов флаги возможностей (IsSticker, IsAnimated и т.д.)
// выставляются адаптером на этапе трансляции; ядро никогда не инспектирует
// типы транспортной библиотеки.
type MediaDescriptor struct {
	Kind     MediaKind
	Size     int64
	FileName string
	MimeType string
	// Duration — длительность в секундах для аудио и видео.
	Duration int

	// Флаги атрибутов документа.
	IsSticker  bool
	IsAnimated bool
	IsVideo    bool
	IsRound    bool
	IsAudio    bool
	IsVoice    bool
	Sticker    StickerKind

	// WebPageURL заполняется для MediaWebPage.
	WebPageURL string
}

// MediaClass — результат классификации дескриптора.
type MediaClass struct {
	// Type — нормализованный тип: photo, video, gif, audio, voice,
	// video_note, sticker, document, contact, location, poll, venue,
	// webpage, other либо пустая строка при отсутствии медиа.
	Type     string
	Size     int64
	FileName string
	MimeType string
	Duration int
	// Terminal означает, что у вложения нет загружаемого бинарного файла:
	// движок прикрепления обязан сразу перейти к методу none.
	Terminal bool
}

// AttachMode — политика прикрепления медиа к пересылаемому сообщению.
type AttachMode string

const (
	AttachModeFile AttachMode = "file"
	AttachModeLink AttachMode = "link"
	AttachModeAuto AttachMode = "auto"
	AttachModeBoth AttachMode = "both"
)

// AlbumPolicy — политика обработки элементов медиа-группы (альбома).
type AlbumPolicy string

const (
	// AlbumSkip подавляет каждый элемент группы (поведение исходной системы).
	AlbumSkip AlbumPolicy = "skip"
	// AlbumFirst загружает ровно один элемент на группу.
	AlbumFirst AlbumPolicy = "first"
)

// AttachMethod — что в итоге было отправлено в лог-чат.
type AttachMethod string

const (
	MethodNone AttachMethod = "none"
	MethodLink AttachMethod = "link"
	MethodFile AttachMethod = "file"
	MethodBoth AttachMethod = "both"
)

// MediaResult — результат попытки загрузки и прикрепления медиа.
// Заполняется линейной последовательностью шагов решения и становится
// неизменяемым после возврата вызывающей стороне.
type MediaResult struct {
	Method     AttachMethod `json:"method"`
	LocalPath  string       `json:"local_path,omitempty"`
	FileSize   int64        `json:"file_size"`
	FileName   string       `json:"file_name"`
	MimeType   string       `json:"mime_type"`
	PublicLink string       `json:"public_link"`
	MediaType  string       `json:"media_type"`
	Error      string       `json:"error,omitempty"`
	// DurationMS — длительность загрузки в миллисекундах.
	DurationMS int64 `json:"duration_ms"`
}

// PublicLink строит публичную ссылку на исходное сообщение.
// Вывод ссылки — чистая функция от (username, messageID);
// для чатов без публичного имени ссылка не существует.
func PublicLink(chatUsername string, messageID int) string {
	if chatUsername == "" {
		return ""
	}
	return "https://t.me/" + chatUsername + "/" + itoa(messageID)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// MessageMeta — платформо-нейтральные метаданные одного входящего сообщения.
// Передаётся агрегатору вместе с текстом, аннотациями и медиа-дескриптором.
type MessageMeta struct {
	ChatType       string
	ChatTitle      string
	ChatUsername   string
	ChatID         int64
	MessageID      int
	Date           time.Time
	SenderName     string
	SenderUsername string
	SenderID       int64
	ForwardedFrom  string
	ForwardDate    time.Time
	ReplyToID      int
	GroupedID      int64
	Reactions      string
	Views          int
	Forwards       int
	Encoding       OffsetEncoding
}

// ParsedPost — агрегат всей информации, извлечённой из одного сообщения.
// Создаётся один раз на сообщение, после шага прикрепления не изменяется.
type ParsedPost struct {
	ChatType     string `json:"chat_type"`
	ChatTitle    string `json:"chat_title"`
	ChatUsername string `json:"chat_username"`
	ChatID       int64  `json:"chat_id"`
	MessageID    int    `json:"message_id"`
	Date         string `json:"date,omitempty"`

	SenderName     string `json:"sender_name"`
	SenderUsername string `json:"sender_username"`
	SenderID       int64  `json:"sender_id,omitempty"`

	RawText    string `json:"raw_text"`
	TextLength int    `json:"text_length"`

	URLs               []string `json:"urls"`
	Hashtags           []string `json:"hashtags"`
	Mentions           []string `json:"mentions"`
	Emails             []string `json:"emails"`
	Phones             []string `json:"phones"`
	BoldTexts          []string `json:"bold_texts"`
	ItalicTexts        []string `json:"italic_texts"`
	UnderlineTexts     []string `json:"underline_texts"`
	StrikethroughTexts []string `json:"strikethrough_texts"`
	CodeFragments      []string `json:"code_fragments"`
	SpoilerTexts       []string `json:"spoiler_texts"`

	MediaType         string `json:"media_type"`
	MediaFileName     string `json:"media_file_name"`
	MediaFileSize     int64  `json:"media_file_size"`
	MediaDuration     int    `json:"media_duration"`
	MediaMime         string `json:"media_mime"`
	MediaTerminal     bool   `json:"-"`
	HasWebpagePreview bool   `json:"has_webpage_preview"`
	WebpageURL        string `json:"webpage_url"`

	ForwardedFrom    string `json:"forwarded_from"`
	ForwardDate      string `json:"forward_date,omitempty"`
	ReplyToMessageID int    `json:"reply_to_message_id,omitempty"`
	GroupedID        int64  `json:"grouped_id,omitempty"`

	ReactionsSummary string `json:"reactions_summary"`
	Views            int    `json:"views,omitempty"`
	Forwards         int    `json:"forwards,omitempty"`

	DownloadedPath string `json:"downloaded_path"`
	DownloadMethod string `json:"download_method"`
	PublicLink     string `json:"public_link"`
}

// ApplyMediaResult переносит итог работы движка прикрепления в пост.
// Вызывается ровно один раз, после чего пост считается неизменяемым.
func (p *ParsedPost) ApplyMediaResult(res *MediaResult) {
	if res == nil {
		return
	}
	p.DownloadedPath = res.LocalPath
	p.DownloadMethod = string(res.Method)
	p.PublicLink = res.PublicLink
}

package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"telegram-post-parser/internal/domain"
	"telegram-post-parser/internal/pkg/sizefmt"
	"telegram-post-parser/internal/ports"
)

// ErrTextSendFailed — единственная ошибка, которую движок поднимает наружу:
// даже запасная отправка чистого текста не удалась, лог-чат не получил ничего.
var ErrTextSendFailed = errors.New("text summary send failed")

// captionLimit — подписи к медиа ограничены платформой 1024 символами;
// обрезаем до 900, оставляя место под строку со ссылкой.
const captionLimit = 900

// AttachConfig — явный объект конфигурации движка прикрепления.
// Передаётся при создании; умолчания документированы в pkg/config.
type AttachConfig struct {
	// DownloadDir — каталог для сохранения загруженных файлов.
	DownloadDir string
	// MaxDownloadSize — порог размера в байтах; 0 означает без ограничений.
	MaxDownloadSize int64
	// Mode — политика прикрепления: file, link, auto или both.
	Mode domain.AttachMode
	// KeepFiles — оставлять ли файлы на диске после отправки.
	KeepFiles bool
}

// AttachOption — функциональная опция для настройки AttachService.
type AttachOption func(*AttachService)

// WithAttachLogger устанавливает логгер для движка.
func WithAttachLogger(l *slog.Logger) AttachOption {
	return func(s *AttachService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock подменяет источник времени (для тестов замера длительности).
func WithClock(clock func() time.Time) AttachOption {
	return func(s *AttachService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// AttachService — движок решения о прикреплении медиа. Конечный автомат
// по одному сообщению: Classified -> SizeChecked -> {Skipped | Downloading}
// -> {Downloaded | DownloadFailed} -> Sent -> Cleaned. Шаги строго
// последовательны; состояние между сообщениями не хранится.
type AttachService struct {
	sender ports.Sender
	cfg    AttachConfig
	log    *slog.Logger
	clock  func() time.Time
}

// NewAttachService создает новый AttachService.
func NewAttachService(sender ports.Sender, cfg AttachConfig, opts ...AttachOption) *AttachService {
	s := &AttachService{
		sender: sender,
		cfg:    cfg,
		log:    slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach выполняет полный цикл: решение о загрузке, загрузка через fetcher,
// отправка в target вместе с HTML-сводкой summary, очистка. Ошибки загрузки
// и отправки файла записываются в результат и деградируют метод
// file -> link -> none; наружу поднимается только ErrTextSendFailed.
func (s *AttachService) Attach(ctx context.Context, post *domain.ParsedPost, fetcher ports.MediaFetcher, summary, target string) (*domain.MediaResult, error) {
	// Элементы альбома подавляются до загрузки и отправки: политика группы
	// решается выше, здесь group id означает «ничего не пересылать».
	if post.GroupedID != 0 {
		s.log.DebugContext(ctx, "Message is part of a media group, suppressing",
			"message_id", post.MessageID, "grouped_id", post.GroupedID)
		return &domain.MediaResult{Method: domain.MethodNone, MediaType: post.MediaType}, nil
	}

	result := s.download(ctx, post, fetcher)

	// Нечего прикреплять и нечем деградировать — лог-чат всё равно
	// получает текстовую сводку.
	if result.Method == domain.MethodNone {
		if err := s.sender.SendText(ctx, target, summary); err != nil {
			return result, fmt.Errorf("%w: %v", ErrTextSendFailed, err)
		}
		return result, nil
	}

	if err := s.send(ctx, result, summary, target); err != nil {
		return result, err
	}

	s.cleanup(ctx, result)
	return result, nil
}

// download — шаги Classified -> SizeChecked -> {Skipped | Downloading} ->
// {Downloaded | DownloadFailed}. Классификация уже лежит в post; fetcher
// может быть nil, когда у сообщения нет загружаемого файла.
func (s *AttachService) download(ctx context.Context, post *domain.ParsedPost, fetcher ports.MediaFetcher) *domain.MediaResult {
	result := &domain.MediaResult{
		Method:    domain.MethodNone,
		MediaType: post.MediaType,
	}

	// Classified -> терминальное состояние: нет типа или тип без бинарника.
	if post.MediaType == "" || post.MediaTerminal || IsTerminalMediaType(post.MediaType) {
		return result
	}

	result.FileSize = post.MediaFileSize
	result.FileName = post.MediaFileName
	result.MimeType = post.MediaMime
	result.PublicLink = domain.PublicLink(post.ChatUsername, post.MessageID)

	// Режим link обходит загрузку: пересылается только ссылка. При keep_files
	// загрузка всё же выполняется — артефакт остаётся локальным архивом.
	if s.cfg.Mode == domain.AttachModeLink && !s.cfg.KeepFiles {
		result.Method = s.linkOrNone(result)
		return result
	}

	// SizeChecked -> Skipped: превышение порога исключает саму попытку.
	if s.cfg.MaxDownloadSize > 0 && post.MediaFileSize > s.cfg.MaxDownloadSize {
		s.log.InfoContext(ctx, "Skipping download: size exceeds limit",
			"file_name", result.FileName,
			"size", sizefmt.Format(post.MediaFileSize),
			"limit", sizefmt.Format(s.cfg.MaxDownloadSize),
		)
		result.Method = s.linkOrNone(result)
		return result
	}

	if fetcher == nil {
		result.Error = "no media fetcher for message"
		result.Method = s.linkOrNone(result)
		return result
	}

	// Downloading.
	dest := s.cfg.DownloadDir
	if result.FileName != "" {
		dest = filepath.Join(s.cfg.DownloadDir, result.FileName)
	}
	if err := os.MkdirAll(s.cfg.DownloadDir, 0o755); err != nil {
		result.Error = err.Error()
		result.Method = s.linkOrNone(result)
		return result
	}

	start := s.clock()
	path, err := fetcher.Fetch(ctx, dest)
	result.DurationMS = s.clock().Sub(start).Milliseconds()

	if err != nil {
		// DownloadFailed: ошибка записывается, метод деградирует.
		s.log.WarnContext(ctx, "Download failed", "message_id", post.MessageID, "error", err)
		result.Error = err.Error()
		result.Method = s.linkOrNone(result)
		return result
	}
	if path == "" {
		result.Error = "download returned no path"
		result.Method = s.linkOrNone(result)
		return result
	}

	// Downloaded: сохранённый артефакт авторитетен для размера и имени,
	// предварительная оценка отбрасывается.
	result.LocalPath = path
	result.FileName = filepath.Base(path)
	if info, statErr := os.Stat(path); statErr == nil {
		result.FileSize = info.Size()
	}
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		result.MimeType = mt
	}

	s.log.InfoContext(ctx, "Downloaded media",
		"media_type", result.MediaType,
		"path", path,
		"size", sizefmt.Format(result.FileSize),
		"duration_ms", result.DurationMS,
	)

	result.Method = domain.MethodFile
	return result
}

// send — шаг Downloaded -> Sent с применением настроенного режима.
// Любая ошибка отправки вложения приводит к запасной отправке чистого
// текста; только провал этой запасной отправки поднимается наружу.
func (s *AttachService) send(ctx context.Context, result *domain.MediaResult, summary, target string) error {
	linkLine := ""
	if result.PublicLink != "" {
		linkLine = fmt.Sprintf("\n\n<a href=\"%s\">🔗 Original</a>", html.EscapeString(result.PublicLink))
	}

	caption := truncateRunes(summary, captionLimit)

	sendFile := false
	sendLinkOnly := false

	switch s.cfg.Mode {
	case domain.AttachModeFile:
		sendFile = result.LocalPath != ""
	case domain.AttachModeLink:
		sendLinkOnly = true
	case domain.AttachModeBoth:
		sendFile = result.LocalPath != ""
		if result.PublicLink != "" {
			caption += linkLine
		}
	default: // auto
		sendFile = result.LocalPath != ""
		sendLinkOnly = result.LocalPath == ""
	}

	var sendErr error
	switch {
	case sendFile && result.LocalPath != "":
		sendErr = s.sender.SendFile(ctx, target, result.LocalPath, caption)
		if sendErr == nil {
			// Метод "both" означает, что строка со ссылкой реально ушла
			// в подписи; наличие выводимой ссылки само по себе — ещё "file".
			if s.cfg.Mode == domain.AttachModeBoth && result.PublicLink != "" {
				result.Method = domain.MethodBoth
			} else {
				result.Method = domain.MethodFile
			}
		}
	case sendLinkOnly || result.LocalPath == "":
		text := summary
		if result.PublicLink != "" {
			text += linkLine
		}
		// Есть метаданные, но нет артефакта — помечаем это в тексте.
		if result.FileSize > 0 && result.LocalPath == "" {
			text += fmt.Sprintf("\n\n📎 <b>Media not downloaded</b> (%s, %s)",
				html.EscapeString(result.MediaType), sizefmt.Format(result.FileSize))
		}
		sendErr = s.sender.SendText(ctx, target, text)
		if sendErr == nil {
			result.Method = s.linkOrNone(result)
		}
	default:
		sendErr = s.sender.SendText(ctx, target, summary)
	}

	if sendErr != nil {
		s.log.WarnContext(ctx, "Failed to send attachment, falling back to text", "error", sendErr)
		result.Error = sendErr.Error()
		result.Method = s.linkOrNone(result)
		if err := s.sender.SendText(ctx, target, summary); err != nil {
			return fmt.Errorf("%w: %v", ErrTextSendFailed, err)
		}
	}
	return nil
}

// cleanup — шаг Sent -> Cleaned: удаление артефакта по политике.
// Ошибки удаления проглатываются: висящий файл приемлем, падение — нет.
func (s *AttachService) cleanup(ctx context.Context, result *domain.MediaResult) {
	if result.LocalPath == "" || s.cfg.KeepFiles {
		return
	}
	if err := os.Remove(result.LocalPath); err != nil {
		s.log.DebugContext(ctx, "Cleanup failed, ignoring", "path", result.LocalPath, "error", err)
		return
	}
	s.log.DebugContext(ctx, "Removed downloaded file", "path", result.LocalPath)
}

func (s *AttachService) linkOrNone(result *domain.MediaResult) domain.AttachMethod {
	if result.PublicLink != "" {
		return domain.MethodLink
	}
	return domain.MethodNone
}

// truncateRunes обрезает строку до limit рун с маркером многоточия.
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

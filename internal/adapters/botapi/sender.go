// Package botapi — запасной отправитель через Bot API. Используется, когда
// сводки должен публиковать отдельный бот, а не аккаунт наблюдателя.
package botapi

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	applog "telegram-post-parser/internal/log"
)

// Sender реализует ports.Sender поверх go-telegram-bot-api.
// Bot API не принимает context: ctx здесь только для сигнатуры порта.
type Sender struct {
	bot *tgbotapi.BotAPI
	log *slog.Logger
}

// NewSender создает Sender и проверяет токен запросом getMe.
// Внутренний логгер библиотеки переводится на slog с маскировкой токенов.
func NewSender(token string, log *slog.Logger) (*Sender, error) {
	if log == nil {
		log = slog.Default()
	}

	if err := tgbotapi.SetLogger(&applog.TGBotAPIAdapter{Logger: log}); err != nil {
		return nil, fmt.Errorf("set bot api logger: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api client: %w", err)
	}

	log.Info("Bot API sender ready", "bot_username", bot.Self.UserName)
	return &Sender{bot: bot, log: log}, nil
}

// SendText отправляет HTML-сводку в target.
func (s *Sender) SendText(_ context.Context, target, text string) error {
	msg := tgbotapi.NewMessage(0, text)
	msg.ChatID, msg.ChannelUsername = chatAddress(target)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("bot api send text to %q: %w", target, err)
	}
	return nil
}

// SendFile отправляет файл с HTML-подписью в target.
func (s *Sender) SendFile(_ context.Context, target, path, caption string) error {
	doc := tgbotapi.NewDocument(0, tgbotapi.FilePath(path))
	doc.ChatID, doc.ChannelUsername = chatAddress(target)
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML

	if _, err := s.bot.Send(doc); err != nil {
		return fmt.Errorf("bot api send file to %q: %w", target, err)
	}
	return nil
}

// chatAddress превращает строковую цель в адрес Bot API: числовой
// идентификатор либо @username канала.
func chatAddress(target string) (int64, string) {
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		return id, ""
	}
	if !strings.HasPrefix(target, "@") {
		target = "@" + target
	}
	return 0, target
}

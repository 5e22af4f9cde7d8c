package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"

	tgclient "telegram-post-parser/internal/telegram"
)

// Transport отправляет сводки и вложения через основной клиент MTProto.
// Реализует ports.Sender.
type Transport struct {
	client *tgclient.Client
	sender *message.Sender
	upload *uploader.Uploader
	log    *slog.Logger
}

// TransportOption — функциональная опция для настройки Transport.
type TransportOption func(*Transport)

// WithTransportLogger устанавливает логгер для транспорта.
func WithTransportLogger(l *slog.Logger) TransportOption {
	return func(t *Transport) {
		if l != nil {
			t.log = l
		}
	}
}

// NewTransport создает новый Transport поверх клиента.
func NewTransport(client *tgclient.Client, opts ...TransportOption) *Transport {
	api := client.RawAPI()
	up := uploader.NewUploader(api)

	t := &Transport{
		client: client,
		sender: message.NewSender(api).WithUploader(up),
		upload: up,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SendText отправляет HTML-сводку в target.
func (t *Transport) SendText(ctx context.Context, target, text string) error {
	return t.client.Do(ctx, func(ctx context.Context) error {
		_, err := t.resolve(target).StyledText(ctx, html.String(nil, text))
		if err != nil {
			return fmt.Errorf("send text to %q: %w", target, err)
		}
		return nil
	})
}

// SendFile загружает файл и отправляет его с HTML-подписью в target.
func (t *Transport) SendFile(ctx context.Context, target, path, caption string) error {
	return t.client.Do(ctx, func(ctx context.Context) error {
		file, err := t.upload.FromPath(ctx, path)
		if err != nil {
			return fmt.Errorf("upload %q: %w", path, err)
		}

		doc := message.UploadedDocument(file, html.String(nil, caption))
		doc.Filename(filepath.Base(path))

		if _, err := t.resolve(target).Media(ctx, doc); err != nil {
			return fmt.Errorf("send file to %q: %w", target, err)
		}
		return nil
	})
}

// resolve превращает строковую цель из конфигурации в построитель запроса.
// "me" означает «Избранное» текущего аккаунта.
func (t *Transport) resolve(target string) *message.RequestBuilder {
	if target == "me" || target == "self" {
		return t.sender.Self()
	}
	return t.sender.Resolve(target)
}

// Fetcher загружает один конкретный файл сообщения. Создаётся наблюдателем
// на каждое сообщение с медиа и передаётся движку прикрепления; адрес файла
// остаётся в адаптере, ядро его не видит. Реализует ports.MediaFetcher.
type Fetcher struct {
	client *tgclient.Client
	loc    tg.InputFileLocationClass
}

// NewFetcher создает Fetcher для адреса файла. Для nil-адреса возвращает nil:
// движок прикрепления трактует это как отсутствие загружаемого файла.
func NewFetcher(client *tgclient.Client, loc tg.InputFileLocationClass) *Fetcher {
	if loc == nil {
		return nil
	}
	return &Fetcher{client: client, loc: loc}
}

// Fetch скачивает файл в dest и возвращает фактический путь.
func (f *Fetcher) Fetch(ctx context.Context, dest string) (string, error) {
	err := f.client.Do(ctx, func(ctx context.Context) error {
		_, err := downloader.NewDownloader().
			Download(f.client.RawAPI(), f.loc).
			ToPath(ctx, dest)
		if err != nil {
			return fmt.Errorf("download to %q: %w", dest, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

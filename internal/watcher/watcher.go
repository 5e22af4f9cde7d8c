// Package watcher подписывается на новые сообщения и прогоняет каждое
// через конвейер: трансляция -> разбор -> сводка -> прикрепление -> журнал.
package watcher

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gotd/td/tg"

	tgadapter "telegram-post-parser/internal/adapters/telegram"
	"telegram-post-parser/internal/cache"
	"telegram-post-parser/internal/core/services"
	"telegram-post-parser/internal/domain"
	"telegram-post-parser/internal/ports"
	tgclient "telegram-post-parser/internal/telegram"
)

// Config задает поведение наблюдателя.
type Config struct {
	// WatchChats — имена или идентификаторы наблюдаемых чатов.
	// Пустой список означает все входящие сообщения.
	WatchChats []string
	// LogChat — получатель сводок.
	LogChat string
	// AlbumPolicy определяет судьбу элементов медиа-групп.
	AlbumPolicy domain.AlbumPolicy
}

// Watcher связывает обновления MTProto с конвейером разбора.
type Watcher struct {
	cfg        Config
	client     *tgclient.Client
	parser     *services.ParseService
	attach     *services.AttachService
	renderer   ports.Renderer
	sink       ports.Sink
	groups     *cache.GroupCache
	dispatcher tg.UpdateDispatcher
	watchSet   map[string]bool
	log        *slog.Logger

	processed atomic.Int64
}

// WatcherOption — функциональная опция для настройки Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger устанавливает логгер для наблюдателя.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWatcher создает Watcher и регистрирует обработчики обновлений.
// Возвращённый диспетчер передаётся клиенту как UpdateHandler.
func NewWatcher(
	cfg Config,
	client *tgclient.Client,
	parser *services.ParseService,
	attach *services.AttachService,
	renderer ports.Renderer,
	sink ports.Sink,
	groups *cache.GroupCache,
	opts ...WatcherOption,
) *Watcher {
	w := &Watcher{
		cfg:        cfg,
		client:     client,
		parser:     parser,
		attach:     attach,
		renderer:   renderer,
		sink:       sink,
		groups:     groups,
		dispatcher: tg.NewUpdateDispatcher(),
		watchSet:   buildWatchSet(cfg.WatchChats),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		w.handleUpdate(ctx, e, u.Message)
		return nil
	})
	w.dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		w.handleUpdate(ctx, e, u.Message)
		return nil
	})

	return w
}

// Dispatcher возвращает диспетчер для подключения к клиенту.
func (w *Watcher) Dispatcher() tg.UpdateDispatcher {
	return w.dispatcher
}

// Processed возвращает количество обработанных сообщений.
func (w *Watcher) Processed() int64 {
	return w.processed.Load()
}

// handleUpdate — общая точка входа для обоих видов обновлений.
// Ошибки конвейера логируются и не роняют цикл обновлений.
func (w *Watcher) handleUpdate(ctx context.Context, e tg.Entities, msg tg.MessageClass) {
	message, ok := msg.(*tg.Message)
	if !ok {
		return
	}
	if message.Out {
		return
	}

	meta := w.buildMeta(message, e)
	if !w.watched(meta) {
		return
	}

	mediaName := "text"
	if message.Media != nil {
		mediaName = message.Media.TypeName()
	}
	w.log.InfoContext(ctx, "📩 New message",
		"message_id", message.ID, "chat_id", meta.ChatID, "media", mediaName)

	if err := w.process(ctx, meta, message, e); err != nil {
		w.log.ErrorContext(ctx, "Pipeline failed",
			"message_id", message.ID, "chat_id", meta.ChatID, "error", err)
		return
	}
	w.processed.Add(1)
}

// process прогоняет одно сообщение через весь конвейер.
func (w *Watcher) process(ctx context.Context, meta domain.MessageMeta, message *tg.Message, e tg.Entities) error {
	annotations := tgadapter.MapAnnotations(message.Entities, e.Users)
	desc, fileLoc := tgadapter.MapMedia(message.Media)

	post := w.parser.Parse(meta, message.Message, annotations, desc)

	// Политика "first": лидер медиа-группы обрабатывается как одиночное
	// сообщение, остальные элементы подавляются движком прикрепления.
	if post.GroupedID != 0 && w.cfg.AlbumPolicy == domain.AlbumFirst {
		if w.groups != nil && w.groups.Claim(post.GroupedID, post.MessageID) {
			post.GroupedID = 0
		}
	}

	summary := w.renderer.Render(post)

	var fetcher ports.MediaFetcher
	if f := tgadapter.NewFetcher(w.client, fileLoc); f != nil {
		fetcher = f
	}

	result, err := w.attach.Attach(ctx, post, fetcher, summary, w.cfg.LogChat)
	post.ApplyMediaResult(result)
	if err != nil {
		return err
	}

	w.log.InfoContext(ctx, "└─ Parsed",
		"chat_type", post.ChatType,
		"text_length", post.TextLength,
		"urls", len(post.URLs),
		"hashtags", len(post.Hashtags),
		"media_type", post.MediaType,
		"method", post.DownloadMethod,
	)

	if err := w.sink.Append(post); err != nil {
		w.log.WarnContext(ctx, "JSON write failed", "error", err)
	}
	return nil
}

// buildMeta собирает платформо-нейтральные метаданные сообщения.
func (w *Watcher) buildMeta(message *tg.Message, e tg.Entities) domain.MessageMeta {
	meta := domain.MessageMeta{
		MessageID: message.ID,
		Date:      time.Unix(int64(message.Date), 0),
		GroupedID: message.GroupedID,
		Views:     message.Views,
		Forwards:  message.Forwards,
		Encoding:  domain.EncodingUTF16,
	}

	meta.ChatType, meta.ChatTitle, meta.ChatUsername, meta.ChatID = chatInfo(message.PeerID, e)

	if from, ok := message.FromID.(*tg.PeerUser); ok {
		if user := e.Users[from.UserID]; user != nil {
			meta.SenderName = senderName(user)
			meta.SenderUsername = user.Username
			meta.SenderID = user.ID
		}
	} else if meta.ChatType == "private" {
		// В личном чате отправитель и есть собеседник.
		if peer, ok := message.PeerID.(*tg.PeerUser); ok {
			if user := e.Users[peer.UserID]; user != nil {
				meta.SenderName = senderName(user)
				meta.SenderUsername = user.Username
				meta.SenderID = user.ID
			}
		}
	} else {
		// Посты каналов идут от имени самого канала.
		meta.SenderName = meta.ChatTitle
	}

	if fwd, ok := message.GetFwdFrom(); ok {
		meta.ForwardedFrom = forwardOrigin(fwd, e)
		meta.ForwardDate = time.Unix(int64(fwd.Date), 0)
	}
	if reply, ok := message.ReplyTo.(*tg.MessageReplyHeader); ok {
		meta.ReplyToID = reply.ReplyToMsgID
	}
	if reactions, ok := message.GetReactions(); ok {
		meta.Reactions = tgadapter.MapReactions(reactions)
	}

	return meta
}

// watched сообщает, входит ли чат в наблюдаемый набор.
func (w *Watcher) watched(meta domain.MessageMeta) bool {
	if len(w.watchSet) == 0 {
		return true
	}
	if meta.ChatUsername != "" && w.watchSet[strings.ToLower(meta.ChatUsername)] {
		return true
	}
	return w.watchSet[strconv.FormatInt(meta.ChatID, 10)]
}

// buildWatchSet нормализует список чатов из конфигурации.
func buildWatchSet(chats []string) map[string]bool {
	set := make(map[string]bool, len(chats))
	for _, chat := range chats {
		chat = strings.TrimSpace(strings.TrimPrefix(chat, "@"))
		if chat == "" {
			continue
		}
		set[strings.ToLower(chat)] = true
	}
	return set
}

// chatInfo определяет тип, заголовок, имя и идентификатор чата по пиру.
func chatInfo(peer tg.PeerClass, e tg.Entities) (chatType, title, username string, id int64) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		chatType = "private"
		id = p.UserID
		if user := e.Users[p.UserID]; user != nil {
			title = senderName(user)
			username = user.Username
		}
	case *tg.PeerChat:
		chatType = "group"
		id = p.ChatID
		if chat := e.Chats[p.ChatID]; chat != nil {
			title = chat.Title
		}
	case *tg.PeerChannel:
		chatType = "channel"
		id = p.ChannelID
		if channel := e.Channels[p.ChannelID]; channel != nil {
			if channel.Megagroup {
				chatType = "group"
			}
			title = channel.Title
			username = channel.Username
		}
	}
	return chatType, title, username, id
}

// senderName собирает отображаемое имя пользователя.
func senderName(user *tg.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = "@" + user.Username
	}
	return name
}

// forwardOrigin определяет источник пересланного сообщения.
func forwardOrigin(fwd tg.MessageFwdHeader, e tg.Entities) string {
	if fwd.FromName != "" {
		return fwd.FromName
	}
	switch p := fwd.FromID.(type) {
	case *tg.PeerUser:
		if user := e.Users[p.UserID]; user != nil {
			return senderName(user)
		}
	case *tg.PeerChannel:
		if channel := e.Channels[p.ChannelID]; channel != nil {
			return channel.Title
		}
	case *tg.PeerChat:
		if chat := e.Chats[p.ChatID]; chat != nil {
			return chat.Title
		}
	}
	return ""
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gotdtelegram "github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/sevlyar/go-daemon"

	"telegram-post-parser/internal/adapters/botapi"
	"telegram-post-parser/internal/adapters/render"
	"telegram-post-parser/internal/adapters/sink"
	tgadapter "telegram-post-parser/internal/adapters/telegram"
	"telegram-post-parser/internal/cache"
	"telegram-post-parser/internal/core/services"
	"telegram-post-parser/internal/domain"
	applog "telegram-post-parser/internal/log"
	"telegram-post-parser/internal/pkg/config"
	"telegram-post-parser/internal/pkg/tz"
	"telegram-post-parser/internal/ports"
	"telegram-post-parser/internal/server"
	"telegram-post-parser/internal/telegram"
	"telegram-post-parser/internal/watcher"
)

func main() {
	daemonize := flag.Bool("daemon", false, "запустить наблюдатель в фоновом режиме")
	flag.Parse()

	if *daemonize {
		cntxt := &daemon.Context{
			PidFileName: "parser.pid",
			PidFilePerm: 0o644,
			LogFileName: "parser.log",
			LogFilePerm: 0o640,
		}
		child, err := cntxt.Reborn()
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "daemonize failed: %v\n", err)
			os.Exit(1)
		}
		if child != nil {
			// Родительский процесс: потомок уже работает.
			return
		}
		defer func() { _ = cntxt.Release() }()
	}

	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера с маскировкой токенов
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := applog.NewMaskedLogger(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// 4. Зависимости конвейера разбора
	formatter := tz.New(cfg.Time.Timezone, cfg.Time.DateFormat, logger)

	parseSvc := services.NewParseService(
		services.NewExtractionService(),
		services.NewClassificationService(),
		services.WithDateFormatter(formatter.Format),
	)

	groupCache := cache.NewGroupCache(cfg.AlbumCacheTTL())
	groupCache.StartCleanupTicker(appCtx, cfg.AlbumCacheTTL())

	postSink := sink.NewJSONLSink(cfg.Output.JSONPath)

	// 5. Клиент Telegram. Диспетчер наблюдателя нужен клиенту при создании,
	// а наблюдателю нужен клиент, поэтому обновления идут через замыкание.
	var w *watcher.Watcher
	updateHandler := gotdtelegram.UpdateHandlerFunc(func(ctx context.Context, u tg.UpdatesClass) error {
		if w == nil {
			return nil
		}
		return w.Dispatcher().Handle(ctx, u)
	})

	tgClient := telegram.NewClient(telegram.Config{
		APIID:         cfg.TelegramAPI.APIID,
		APIHash:       cfg.TelegramAPI.APIHash,
		PhoneNumber:   cfg.TelegramAPI.PhoneNumber,
		SessionPath:   cfg.TelegramAPI.SessionFile,
		UpdateHandler: updateHandler,
	}, telegram.WithLogger(logger))

	// Отправитель: Bot API при настроенном токене, иначе основной клиент.
	var sender ports.Sender
	if cfg.Bot.Token != "" {
		botSender, err := botapi.NewSender(cfg.Bot.Token, logger)
		if err != nil {
			return fmt.Errorf("failed to create bot api sender: %w", err)
		}
		sender = botSender
	} else {
		sender = tgadapter.NewTransport(tgClient, tgadapter.WithTransportLogger(logger))
	}

	attachSvc := services.NewAttachService(sender, services.AttachConfig{
		DownloadDir:     cfg.Download.Dir,
		MaxDownloadSize: cfg.Download.MaxSizeBytes,
		Mode:            domain.AttachMode(cfg.Download.AttachMode),
		KeepFiles:       cfg.Download.KeepFiles,
	}, services.WithAttachLogger(logger))

	w = watcher.NewWatcher(watcher.Config{
		WatchChats:  cfg.Watch.Chats,
		LogChat:     cfg.Watch.LogChat,
		AlbumPolicy: domain.AlbumPolicy(cfg.Download.AlbumPolicy),
	}, tgClient, parseSvc, attachSvc, render.NewHTMLRenderer(), postSink, groupCache,
		watcher.WithWatcherLogger(logger))

	tgClient.Start(appCtx)
	slog.Info("🚀 Watcher started",
		"session", cfg.TelegramAPI.SessionFile,
		"log_chat", cfg.Watch.LogChat,
		"watch_chats", cfg.Watch.Chats,
		"json_log", cfg.Output.JSONPath,
		"timezone", formatter.Name(),
	)

	// 6. Статусный HTTP-сервер и graceful shutdown
	srv := server.New(cfg, tgClient, w, formatter.Name())

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting status server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Signal received, shutting down...")

	// Сначала отменяем контекст приложения, чтобы остановить клиент Telegram
	appCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("Application exited gracefully")
	return nil
}

// Package server — статусный HTTP-сервер наблюдателя.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telegram-post-parser/internal/pkg/config"
)

// HealthChecker проверяет доступность клиента Telegram.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// StatsProvider отдает счётчики наблюдателя.
type StatsProvider interface {
	Processed() int64
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	started    time.Time
}

// New создает новый экземпляр Server. health и stats могут быть nil:
// соответствующие поля ответа тогда опускаются.
func New(cfg *config.Config, health HealthChecker, stats StatsProvider, tzName string) *Server {
	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	s := &Server{
		cfg:     cfg,
		started: time.Now(),
	}

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if health != nil {
			if err := health.Health(r.Context()); err != nil {
				status = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	})

	// Текущее состояние наблюдателя
	chiRouter.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"uptime_seconds": int64(time.Since(s.started).Seconds()),
			"timezone":       tzName,
			"attach_mode":    cfg.Download.AttachMode,
			"album_policy":   cfg.Download.AlbumPolicy,
			"watch_chats":    len(cfg.Watch.Chats),
		}
		if stats != nil {
			resp["processed_messages"] = stats.Processed()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	})

	s.HTTPServer = &http.Server{
		Addr:    cfg.Address(),
		Handler: chiRouter,
	}

	return s
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Завершение работы HTTP-сервера")
	return s.HTTPServer.Shutdown(ctx)
}

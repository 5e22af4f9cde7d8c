// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"telegram-post-parser/internal/domain"
)

// Server содержит конфигурацию статусного HTTP-сервера
type Server struct {
	Host                   string `json:"host" yaml:"host"`
	Port                   int    `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// TelegramAPI содержит конфигурацию клиента Telegram API
type TelegramAPI struct {
	APIID       int    `json:"api_id" yaml:"api_id"`
	APIHash     string `json:"api_hash" yaml:"api_hash"`
	PhoneNumber string `json:"phone_number" yaml:"phone_number"`
	SessionFile string `json:"session_file" yaml:"session_file"`
}

// Bot содержит конфигурацию запасного отправителя через Bot API.
// Пустой токен означает отправку через основной клиент.
type Bot struct {
	Token string `json:"token" yaml:"token"`
}

// Watch содержит список наблюдаемых чатов и целевой лог-чат
type Watch struct {
	// Chats — имена пользователей или идентификаторы наблюдаемых чатов.
	// Пустой список означает обработку всех входящих сообщений.
	Chats []string `json:"chats" yaml:"chats"`
	// LogChat — получатель сводок и вложений.
	LogChat string `json:"log_chat" yaml:"log_chat"`
}

// Download содержит политику загрузки и прикрепления медиа
type Download struct {
	Dir                  string `json:"dir" yaml:"dir"`
	MaxSizeBytes         int64  `json:"max_size_bytes" yaml:"max_size_bytes"` // 0 - без ограничений
	AttachMode           string `json:"attach_mode" yaml:"attach_mode"`       // file, link, auto, both
	KeepFiles            bool   `json:"keep_files" yaml:"keep_files"`
	AlbumPolicy          string `json:"album_policy" yaml:"album_policy"` // skip, first
	AlbumCacheTTLMinutes int    `json:"album_cache_ttl_minutes" yaml:"album_cache_ttl_minutes"`
}

// Output содержит конфигурацию накопителя результатов
type Output struct {
	JSONPath string `json:"json_path" yaml:"json_path"`
}

// Time содержит конфигурацию часового пояса и формата дат
type Time struct {
	Timezone   string `json:"timezone" yaml:"timezone"`
	DateFormat string `json:"date_format" yaml:"date_format"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level string `json:"level" yaml:"level"` // debug, info, warn, error
}

// Config содержит конфигурацию приложения
type Config struct {
	Server      Server      `json:"server" yaml:"server"`
	TelegramAPI TelegramAPI `json:"telegram_api" yaml:"telegram_api"`
	Bot         Bot         `json:"bot" yaml:"bot"`
	Watch       Watch       `json:"watch" yaml:"watch"`
	Download    Download    `json:"download" yaml:"download"`
	Output      Output      `json:"output" yaml:"output"`
	Time        Time        `json:"time" yaml:"time"`
	Logging     Logging     `json:"logging" yaml:"logging"`
}

// LoadConfig загружает конфигурацию приложения из config.yml с дополнением
// из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Отсутствие .env не ошибка: полагаемся на окружение или config.yml
	}

	cfg := defaultConfig()
	if err := loadFromYAML("config.yml", cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	return cfg, nil
}

// loadFromYAML накладывает значения из YAML-файла поверх cfg.
// Отсутствующий файл не считается ошибкой.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return nil
}

// applyEnv накладывает переменные окружения поверх уже загруженных значений
func applyEnv(cfg *Config) {
	if v := os.Getenv("API_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.TelegramAPI.APIID = id
		}
	}
	if v := os.Getenv("API_HASH"); v != "" {
		cfg.TelegramAPI.APIHash = v
	}
	if v := os.Getenv("PHONE_NUMBER"); v != "" {
		cfg.TelegramAPI.PhoneNumber = v
	}
	if v := os.Getenv("SESSION_FILE"); v != "" {
		cfg.TelegramAPI.SessionFile = v
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("WATCH_CHATS"); v != "" {
		cfg.Watch.Chats = splitList(v)
	}
	if v := os.Getenv("LOG_CHAT"); v != "" {
		cfg.Watch.LogChat = v
	}
	if v := os.Getenv("DOWNLOAD_DIR"); v != "" {
		cfg.Download.Dir = v
	}
	if v := os.Getenv("MAX_DOWNLOAD_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Download.MaxSizeBytes = size
		}
	}
	if v := os.Getenv("ATTACH_MODE"); v != "" {
		cfg.Download.AttachMode = v
	}
	if v := os.Getenv("KEEP_FILES"); v != "" {
		cfg.Download.KeepFiles = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Time.Timezone = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// splitList разбирает список значений, разделённых запятыми
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ShutdownTimeout возвращает таймаут остановки сервера как Duration
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// AlbumCacheTTL возвращает время жизни записи в кеше альбомов как Duration
func (c *Config) AlbumCacheTTL() time.Duration {
	return time.Duration(c.Download.AlbumCacheTTLMinutes) * time.Minute
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.TelegramAPI.APIID <= 0 {
		return fmt.Errorf("telegram_api.api_id должно быть положительным целым числом")
	}
	if c.TelegramAPI.APIHash == "" {
		return fmt.Errorf("telegram_api.api_hash не может быть пустым")
	}
	// phone_number допустимо оставить пустым: при живой сессии он не нужен,
	// а при интерактивном входе будет запрошен в терминале.

	if c.Watch.LogChat == "" {
		return fmt.Errorf("watch.log_chat не может быть пустым")
	}

	switch domain.AttachMode(c.Download.AttachMode) {
	case domain.AttachModeFile, domain.AttachModeLink, domain.AttachModeAuto, domain.AttachModeBoth:
		// допустимо
	default:
		return fmt.Errorf("download.attach_mode должен быть одним из: file, link, auto, both")
	}

	switch domain.AlbumPolicy(c.Download.AlbumPolicy) {
	case domain.AlbumSkip, domain.AlbumFirst:
		// допустимо
	default:
		return fmt.Errorf("download.album_policy должен быть одним из: skip, first")
	}

	if c.Download.MaxSizeBytes < 0 {
		return fmt.Errorf("download.max_size_bytes должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.Download.AlbumCacheTTLMinutes <= 0 {
		return fmt.Errorf("download.album_cache_ttl_minutes должно быть положительным")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds должно быть положительным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	return nil
}

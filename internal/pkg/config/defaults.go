package config

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost             = "0.0.0.0"
	DefaultServerPort             = 8080
	DefaultShutdownTimeoutSeconds = 15

	// Telegram API defaults
	DefaultSessionFile = "tg.session"

	// Download defaults
	DefaultDownloadDir          = "downloads"
	DefaultMaxDownloadSize      = int64(0) // без ограничений
	DefaultAttachMode           = "auto"
	DefaultAlbumPolicy          = "skip"
	DefaultAlbumCacheTTLMinutes = 10

	// Output defaults
	DefaultJSONPath = "parsed_posts.json"

	// Time defaults
	DefaultTimezone   = "UTC"
	DefaultDateFormat = "2006-01-02 15:04:05 MST"

	// Logging defaults
	DefaultLogLevel = "info"
)

// defaultConfig возвращает конфигурацию со значениями по умолчанию,
// поверх которой накладываются YAML и переменные окружения.
func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:                   DefaultServerHost,
			Port:                   DefaultServerPort,
			ShutdownTimeoutSeconds: DefaultShutdownTimeoutSeconds,
		},
		TelegramAPI: TelegramAPI{
			SessionFile: DefaultSessionFile,
		},
		Download: Download{
			Dir:                  DefaultDownloadDir,
			MaxSizeBytes:         DefaultMaxDownloadSize,
			AttachMode:           DefaultAttachMode,
			AlbumPolicy:          DefaultAlbumPolicy,
			AlbumCacheTTLMinutes: DefaultAlbumCacheTTLMinutes,
		},
		Output: Output{
			JSONPath: DefaultJSONPath,
		},
		Time: Time{
			Timezone:   DefaultTimezone,
			DateFormat: DefaultDateFormat,
		},
		Logging: Logging{
			Level: DefaultLogLevel,
		},
	}
}

// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Downloads   DownloadsConfig   `mapstructure:"downloads"`
	History     HistoryConfig     `mapstructure:"history"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	PubSub      PubSubConfig      `mapstructure:"pubsub"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// HeartbeatSeconds is the progress-stream keep-alive interval.
	HeartbeatSeconds int `mapstructure:"heartbeat_seconds"`
	// StaticDir optionally serves a frontend from disk.
	StaticDir string `mapstructure:"static_dir"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// DownloadsConfig governs the extraction engine.
type DownloadsConfig struct {
	Dir      string `mapstructure:"dir"`
	Binary   string `mapstructure:"binary"`
	CacheDir string `mapstructure:"cache_dir"`
	// BufferSize bounds the progress event channel.
	BufferSize int `mapstructure:"buffer_size"`
}

// HistoryConfig selects and sizes the finished-job history store.
type HistoryConfig struct {
	// Backend is one of memory, sqlite, postgres.
	Backend string `mapstructure:"backend"`
	Cap     int    `mapstructure:"cap"`
	// Path is the sqlite database file.
	Path string `mapstructure:"path"`
	// DSN is the postgres connection string.
	DSN string `mapstructure:"dsn"`
}

// CredentialsConfig points the credential provider at its sources.
type CredentialsConfig struct {
	SecretCookiePath string `mapstructure:"secret_cookie_path"`
	LocalCookiePath  string `mapstructure:"local_cookie_path"`
}

// ArchiveConfig controls optional finished-file archiving.
type ArchiveConfig struct {
	// Backend is one of "", local, gcs. Empty disables archiving.
	Backend   string `mapstructure:"backend"`
	Prefix    string `mapstructure:"prefix"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PubSubConfig holds metadata for completion notifications. An empty topic
// disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// History backends.
const (
	HistoryMemory   = "memory"
	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"
)

// Archive backends.
const (
	ArchiveLocal = "local"
	ArchiveGCS   = "gcs"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YTDLPWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Cloud Run style override: a bare PORT wins over configured ports.
	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.heartbeat_seconds", 30)
	v.SetDefault("server.static_dir", "static")
	v.SetDefault("downloads.dir", "downloads")
	v.SetDefault("downloads.binary", "yt-dlp")
	v.SetDefault("downloads.cache_dir", "/tmp/yt-dlp-cache")
	v.SetDefault("downloads.buffer_size", 1024)
	v.SetDefault("history.backend", HistorySQLite)
	v.SetDefault("history.cap", 50)
	v.SetDefault("history.path", "history.db")
	v.SetDefault("credentials.secret_cookie_path", "/etc/secrets/cookies.txt")
	v.SetDefault("credentials.local_cookie_path", "cookies.txt")
	v.SetDefault("archive.prefix", "downloads")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.HeartbeatSeconds <= 0 {
		return fmt.Errorf("server.heartbeat_seconds must be > 0")
	}
	if c.Downloads.Dir == "" {
		return fmt.Errorf("downloads.dir must be set")
	}
	switch c.History.Backend {
	case HistoryMemory, HistorySQLite:
	case HistoryPostgres:
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown history.backend %q", c.History.Backend)
	}
	switch c.Archive.Backend {
	case "":
	case ArchiveLocal:
		if c.Archive.LocalDir == "" {
			return fmt.Errorf("archive.local_dir must be set for the local backend")
		}
	case ArchiveGCS:
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown archive.backend %q", c.Archive.Backend)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when a topic is configured")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// RateLimitConfig holds settings for inbound update throttling.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

// FlowConfig controls the feedback conversation flow.
type FlowConfig struct {
	// StartKeyword is the reserved text that resets a conversation at any step.
	StartKeyword string `yaml:"start_keyword" envconfig:"FLOW_START_KEYWORD"`
	// MediaConsent inserts a yes/no consent step before media collection.
	MediaConsent bool `yaml:"media_consent" envconfig:"FLOW_MEDIA_CONSENT"`
	// Prompts override the compiled-in conversation texts when non-empty.
	Prompts PromptsConfig `yaml:"prompts"`
}

// PromptsConfig carries optional overrides for user-facing conversation texts.
type PromptsConfig struct {
	Opening       string `yaml:"opening"`
	AskConsent    string `yaml:"ask_consent"`
	AskFeedback   string `yaml:"ask_feedback"`
	AskMedia      string `yaml:"ask_media"`
	NeedText      string `yaml:"need_text"`
	NeedChoice    string `yaml:"need_choice"`
	NeedMedia     string `yaml:"need_media"`
	Completed     string `yaml:"completed"`
	Apology       string `yaml:"apology"`
}

// SessionConfig controls session expiry and the reaper sweep.
type SessionConfig struct {
	TTLMinutes           int `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" envconfig:"SESSION_SWEEP_INTERVAL_MINUTES"`
}

// MediaConfig bounds the asynchronous media pipeline.
type MediaConfig struct {
	Workers   int `yaml:"workers" envconfig:"MEDIA_WORKERS"`
	QueueSize int `yaml:"queue_size" envconfig:"MEDIA_QUEUE_SIZE"`
}

// S3Config configures the S3 blob backend.
type S3Config struct {
	Bucket        string `yaml:"bucket" envconfig:"STORAGE_S3_BUCKET"`
	Region        string `yaml:"region" envconfig:"STORAGE_S3_REGION"`
	Prefix        string `yaml:"prefix" envconfig:"STORAGE_S3_PREFIX"`
	PublicBaseURL string `yaml:"public_base_url" envconfig:"STORAGE_S3_PUBLIC_BASE_URL"`
}

// FSConfig configures the filesystem blob backend used in development.
type FSConfig struct {
	Dir     string `yaml:"dir" envconfig:"STORAGE_FS_DIR"`
	BaseURL string `yaml:"base_url" envconfig:"STORAGE_FS_BASE_URL"`
}

// StorageConfig selects and configures the durable blob backend.
type StorageConfig struct {
	Backend string   `yaml:"backend" envconfig:"STORAGE_BACKEND"`
	S3      S3Config `yaml:"s3"`
	FS      FSConfig `yaml:"fs"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"

	// StorageBackendS3 stores media in an S3 bucket.
	StorageBackendS3 = "s3"
	// StorageBackendFS stores media on the local filesystem.
	StorageBackendFS = "fs"
)

// Config aggregates the configuration of the bot core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Flow      FlowConfig      `yaml:"flow"`
	Session   SessionConfig   `yaml:"session"`
	Media     MediaConfig     `yaml:"media"`
	Storage   StorageConfig   `yaml:"storage"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}

	cfg.Flow.StartKeyword = strings.ToLower(strings.TrimSpace(cfg.Flow.StartKeyword))
	if cfg.Flow.StartKeyword == "" {
		cfg.Flow.StartKeyword = "start"
	}

	if cfg.Session.TTLMinutes < 0 {
		return fmt.Errorf("session.ttl_minutes must be >= 0")
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 12 * 60
	}
	if cfg.Session.SweepIntervalMinutes < 0 {
		return fmt.Errorf("session.sweep_interval_minutes must be >= 0")
	}
	if cfg.Session.SweepIntervalMinutes == 0 {
		cfg.Session.SweepIntervalMinutes = 60
	}

	if cfg.Media.Workers <= 0 {
		cfg.Media.Workers = 4
	}
	if cfg.Media.QueueSize <= 0 {
		cfg.Media.QueueSize = 64
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if backend == "" {
		backend = StorageBackendFS
	}
	switch backend {
	case StorageBackendS3:
		if strings.TrimSpace(cfg.Storage.S3.Bucket) == "" {
			return fmt.Errorf("storage.s3.bucket is required when storage.backend is 's3'")
		}
		if strings.TrimSpace(cfg.Storage.S3.Region) == "" {
			return fmt.Errorf("storage.s3.region is required when storage.backend is 's3'")
		}
	case StorageBackendFS:
		if strings.TrimSpace(cfg.Storage.FS.Dir) == "" {
			cfg.Storage.FS.Dir = "data/media"
		}
	default:
		return fmt.Errorf("invalid storage.backend %q; allowed: s3, fs", cfg.Storage.Backend)
	}
	cfg.Storage.Backend = backend

	return nil
}

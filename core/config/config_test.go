package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run_mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.Flow.StartKeyword != "start" {
		t.Errorf("start_keyword = %q, want start", cfg.Flow.StartKeyword)
	}
	if cfg.Session.TTLMinutes != 720 {
		t.Errorf("ttl_minutes = %d, want 720", cfg.Session.TTLMinutes)
	}
	if cfg.Session.SweepIntervalMinutes != 60 {
		t.Errorf("sweep_interval_minutes = %d, want 60", cfg.Session.SweepIntervalMinutes)
	}
	if cfg.Media.Workers != 4 || cfg.Media.QueueSize != 64 {
		t.Errorf("media = %d/%d, want 4/64", cfg.Media.Workers, cfg.Media.QueueSize)
	}
	if cfg.Storage.Backend != StorageBackendFS {
		t.Errorf("storage.backend = %q, want fs", cfg.Storage.Backend)
	}
	if cfg.Storage.FS.Dir == "" {
		t.Error("storage.fs.dir default not applied")
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	err := Normalize(&Config{})
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("err = %v, want token error", err)
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("run_mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
}

func TestNormalizeWebhookValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}

	cfg = validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	cfg.Webhook.URL = "https://bot.example.com/hook"
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
}

func TestNormalizeStartKeywordLowered(t *testing.T) {
	cfg := validConfig()
	cfg.Flow.StartKeyword = "  Restart "
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Flow.StartKeyword != "restart" {
		t.Errorf("start_keyword = %q, want restart", cfg.Flow.StartKeyword)
	}
}

func TestNormalizeS3RequiresBucketAndRegion(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = StorageBackendS3
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for s3 backend without bucket")
	}

	cfg = validConfig()
	cfg.Storage.Backend = StorageBackendS3
	cfg.Storage.S3.Bucket = "feedback-media"
	cfg.Storage.S3.Region = "eu-central-1"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
}

func TestNormalizeRejectsUnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "gcs"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}

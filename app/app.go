// Package app wires the feedback bot: configuration, storage, the
// conversation engine, and the Telegram runtime.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/feedbackbot/core/blob"
	"github.com/m3rciful/feedbackbot/core/bootstrap"
	coreconfig "github.com/m3rciful/feedbackbot/core/config"
	"github.com/m3rciful/feedbackbot/core/flow"
	"github.com/m3rciful/feedbackbot/core/logger"
	"github.com/m3rciful/feedbackbot/core/media"
	"github.com/m3rciful/feedbackbot/core/reaper"
	"github.com/m3rciful/feedbackbot/core/records"
	"github.com/m3rciful/feedbackbot/core/session"
	coretelegram "github.com/m3rciful/feedbackbot/core/telegram"
	tgsender "github.com/m3rciful/feedbackbot/core/telegram/sender"
	"log/slog"
)

// App holds the wired components of the feedback bot.
type App struct {
	cfg *Config

	db       *sqlx.DB
	sessions session.Store
	records  records.Store
	blobs    blob.Store
	reaper   *reaper.Reaper

	// Built late, inside the Telegram Build hook, because they need the
	// live bot instance.
	pipeline *media.Pipeline
	engine   *flow.Engine
}

// New bootstraps infrastructure and constructs the application.
func New(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}

	boot, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg: cfg,
		db:  boot.DB,
	}

	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	a.sessions = session.NewMemoryStore(ttl)

	if boot.DB != nil {
		a.records = records.NewPostgresStore(boot.DB)
	} else {
		logger.Warn(context.Background(), "app", "records.memory",
			slog.String("cause", "no database configured"),
		)
		a.records = records.NewMemoryStore()
	}

	a.blobs, err = buildBlobStore(context.Background(), cfg.CoreConfig())
	if err != nil {
		return nil, err
	}

	sweep := time.Duration(cfg.Session.SweepIntervalMinutes) * time.Minute
	a.reaper = reaper.New(a.sessions, sweep)

	return a, nil
}

func buildBlobStore(ctx context.Context, cfg *coreconfig.Config) (blob.Store, error) {
	switch cfg.Storage.Backend {
	case coreconfig.StorageBackendS3:
		store, err := blob.NewS3Store(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("app: s3 storage init: %w", err)
		}
		return store, nil
	default:
		return blob.NewFSStore(cfg.Storage.FS.Dir, cfg.Storage.FS.BaseURL), nil
	}
}

// TelegramRunOptions builds the Telegram runtime configuration.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	cfg := a.cfg.CoreConfig()
	reg := coretelegram.NewRegistry()

	return coretelegram.RunOptions{
		Config:   cfg,
		Registry: reg,
		DispatcherOptions: tgsender.Options{
			Workers:   4,
			QueueSize: 256,
		},
		Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),

		Build: func(rt coretelegram.Runtime) ([]coretelegram.Middleware, []coretelegram.Route, error) {
			resolver := coretelegram.NewFileResolver(rt.Bot, cfg.Telegram.Token)
			a.pipeline = media.NewPipeline(media.Options{
				Resolver:  resolver,
				Blobs:     a.blobs,
				Records:   a.records,
				Workers:   cfg.Media.Workers,
				QueueSize: cfg.Media.QueueSize,
			})

			a.engine = flow.NewEngine(flow.Options{
				Sessions:     a.sessions,
				Records:      a.records,
				Media:        a.pipeline,
				Sender:       coretelegram.NewBotSender(rt.Bot, rt.Dispatcher),
				StartKeyword: cfg.Flow.StartKeyword,
				MediaConsent: cfg.Flow.MediaConsent,
				Prompts:      flow.PromptsFromConfig(cfg.Flow.Prompts),
			})

			h := &coretelegram.Handlers{Engine: a.engine}
			coretelegram.RegisterCommands(rt.Registry, h, coretelegram.StatsSources{
				Sessions:   a.sessions,
				Records:    a.records,
				Dispatcher: rt.Dispatcher,
			})
			return nil, h.Routes(), nil
		},

		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			if err := a.pipeline.Start(ctx); err != nil {
				return fmt.Errorf("app: media pipeline start: %w", err)
			}
			a.reaper.Start(ctx)
			return nil
		},

		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			a.reaper.Stop()
			if err := a.pipeline.Close(); err != nil {
				logger.Warn(ctx, "app", "pipeline.close",
					slog.String("err", err.Error()),
				)
			}
			if a.db != nil {
				if err := a.db.Close(); err != nil {
					logger.Warn(ctx, "app", "db.close",
						slog.String("err", err.Error()),
					)
				}
			}
			return nil
		},
	}, nil
}

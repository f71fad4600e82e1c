package telegram

import (
	"context"
	"fmt"

	"github.com/m3rciful/feedbackbot/core/flow"
	"github.com/m3rciful/feedbackbot/core/logger"
	"github.com/m3rciful/feedbackbot/core/records"
	"github.com/m3rciful/feedbackbot/core/session"
	"github.com/m3rciful/feedbackbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/feedbackbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/feedbackbot/core/telegram/sender"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Handlers translates Telegram updates into conversation events.
type Handlers struct {
	Engine *flow.Engine
}

// Routes binds message endpoints to the conversation engine. Every media
// endpoint maps to the same handler; the flow decides whether the current
// step accepts it.
func (h *Handlers) Routes() []Route {
	media := func(endpoint string, ref func(*tele.Message) string) Route {
		return Route{Endpoint: endpoint, Handler: h.onMedia(ref)}
	}
	return []Route{
		{Endpoint: tele.OnText, Handler: h.onText},
		media(tele.OnPhoto, func(m *tele.Message) string {
			if m.Photo == nil {
				return ""
			}
			return m.Photo.FileID
		}),
		media(tele.OnDocument, func(m *tele.Message) string {
			if m.Document == nil {
				return ""
			}
			return m.Document.FileID
		}),
		media(tele.OnVideo, func(m *tele.Message) string {
			if m.Video == nil {
				return ""
			}
			return m.Video.FileID
		}),
		media(tele.OnVoice, func(m *tele.Message) string {
			if m.Voice == nil {
				return ""
			}
			return m.Voice.FileID
		}),
		media(tele.OnAudio, func(m *tele.Message) string {
			if m.Audio == nil {
				return ""
			}
			return m.Audio.FileID
		}),
		{Endpoint: tele.OnSticker, Handler: h.onOther},
		{Endpoint: tele.OnLocation, Handler: h.onOther},
		{Endpoint: tele.OnContact, Handler: h.onOther},
	}
}

func (h *Handlers) onText(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "flow.text")
	return h.dispatch(ctx, flow.Event{
		SenderID: tghelpers.SenderID(c),
		Kind:     flow.KindText,
		Text:     c.Text(),
	})
}

func (h *Handlers) onMedia(ref func(*tele.Message) string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.WithHandler(c, "flow.media")
		msg := c.Message()
		mediaRef := ""
		if msg != nil {
			mediaRef = ref(msg)
		}
		kind := flow.KindMedia
		if mediaRef == "" {
			kind = flow.KindOther
		}
		return h.dispatch(ctx, flow.Event{
			SenderID: tghelpers.SenderID(c),
			Kind:     kind,
			MediaRef: mediaRef,
		})
	}
}

func (h *Handlers) onOther(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "flow.other")
	return h.dispatch(ctx, flow.Event{
		SenderID: tghelpers.SenderID(c),
		Kind:     flow.KindOther,
	})
}

// dispatch runs the engine and swallows its error: the engine already
// replied to the user and logged the cause, so bubbling it up to telebot's
// OnError would double-report.
func (h *Handlers) dispatch(ctx context.Context, ev flow.Event) error {
	if ev.SenderID == "" {
		return nil
	}
	if err := h.Engine.Handle(ctx, ev); err != nil {
		logger.Debug(ctx, "tg", "flow.handle",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

// StatsSources exposes the counters surfaced by the /stats command.
type StatsSources struct {
	Sessions   session.Store
	Records    records.Store
	Dispatcher *tgsender.Dispatcher
}

// RegisterCommands wires the bot commands into the registry.
func RegisterCommands(reg *Registry, h *Handlers, stats StatsSources) {
	reg.RegisterCommand("/start", commands.Command{
		Description: "Start or restart feedback collection",
		Handler: func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "cmd.start")
			if err := h.Engine.Reset(ctx, tghelpers.SenderID(c)); err != nil {
				logger.Debug(ctx, "tg", "cmd.start",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
			return nil
		},
	})

	reg.RegisterCommand("/stats", commands.Command{
		Description: "Show collection counters",
		AdminOnly:   true,
		Handler: func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "cmd.stats")

			active := -1
			if stats.Sessions != nil {
				if n, err := stats.Sessions.Count(); err == nil {
					active = n
				}
			}
			saved := int64(-1)
			if stats.Records != nil {
				if n, err := stats.Records.Count(ctx); err == nil {
					saved = n
				}
			}
			var sendErrs uint64
			if stats.Dispatcher != nil {
				sendErrs = stats.Dispatcher.ErrorCount()
			}

			text := fmt.Sprintf(
				"Active sessions: %d\nSaved records: %d\nSend errors: %d",
				active, saved, sendErrs,
			)
			return tghelpers.SendText(c, text)
		},
	})
}

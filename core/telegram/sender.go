package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgsender "github.com/m3rciful/feedbackbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// BotSender delivers conversation replies through the outbound dispatcher.
// It implements flow.Sender; the returned message id is empty because
// delivery is asynchronous.
type BotSender struct {
	bot  *tele.Bot
	disp *tgsender.Dispatcher
}

// NewBotSender wires a BotSender over bot and the shared dispatcher.
// A nil dispatcher makes sends synchronous.
func NewBotSender(bot *tele.Bot, disp *tgsender.Dispatcher) *BotSender {
	return &BotSender{bot: bot, disp: disp}
}

// Send delivers text to the Telegram user identified by userID.
func (s *BotSender) Send(ctx context.Context, userID, text string) (string, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("telegram: bad user id %q: %w", userID, err)
	}
	recipient := &tele.User{ID: id}

	run := func() error {
		_, err := s.bot.Send(recipient, text)
		return err
	}

	if s.disp == nil {
		return "", run()
	}
	if err := s.disp.Enqueue(ctx, "send.text", "sendMessage", run); err != nil {
		if errors.Is(err, tgsender.ErrQueueFull) || errors.Is(err, tgsender.ErrQueueClosed) {
			return "", run()
		}
		return "", err
	}
	return "", nil
}

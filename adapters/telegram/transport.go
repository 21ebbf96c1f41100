// Package telegram adapts the Telegram Bot API to the dispatcher: a long-poll
// loop feeding inbound text messages in, and a fire-and-forget sender out.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/vipgate/dispatch"
)

type Transport struct {
	api *tgbotapi.BotAPI
	log *logrus.Logger
}

func New(token string, log *logrus.Logger) (*Transport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	return &Transport{api: api, log: log}, nil
}

// Username is the bot's own handle, used to build deep links.
func (t *Transport) Username() string {
	return t.api.Self.UserName
}

// SendMessage delivers text to a chat. Errors are returned for the caller to
// log; nothing retries here.
func (t *Transport) SendMessage(ctx context.Context, chatID int64, text string) error {
	_ = ctx // the underlying client carries its own HTTP timeout
	if _, err := t.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// Poll runs the long-poll loop until ctx is canceled, handing each inbound
// text message to handle. Updates are processed one at a time; the dispatcher
// needs no further coordination.
func (t *Transport) Poll(ctx context.Context, handle func(ctx context.Context, msg dispatch.Message)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)
	t.log.WithField("bot", t.Username()).Debug("long poll started")

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			handle(ctx, dispatch.Message{
				UserID:   update.Message.From.ID,
				Username: update.Message.From.UserName,
				ChatID:   update.Message.Chat.ID,
				Text:     update.Message.Text,
			})
		}
	}
}

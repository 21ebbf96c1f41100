// Package notify delivers best-effort out-of-band notices to users: VIP
// grants, revocations, and expiry reminders. Delivery is never guaranteed; a
// user who has not started the bot is simply unreachable.
package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/open-rails/vipgate/core"
)

// Direct sends notifications straight through the transport. Stored user ids
// double as private chat ids on Telegram; an id that does not parse means the
// user cannot be reached at all.
type Direct struct {
	Sender core.Sender
}

func (d *Direct) NotifyUser(ctx context.Context, userID, text string) error {
	chatID, err := chatIDFor(userID)
	if err != nil {
		return err
	}
	if err := d.Sender.SendMessage(ctx, chatID, text); err != nil {
		return fmt.Errorf("notify %s: %w", userID, err)
	}
	return nil
}

func chatIDFor(userID string) (int64, error) {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("notify %q: not a chat id: %w", userID, core.ErrInvalidArgument)
	}
	return chatID, nil
}

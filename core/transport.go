package core

import "context"

// Sender delivers outbound messages over the bot transport.
// Implementations should be non-blocking beyond the transport's own network
// timeouts; errors are reported but callers treat sends as best-effort.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Notifier pushes an out-of-band notice to a user identified by their stored
// id. A user who never initiated contact with the bot is unreachable; the
// resulting error must degrade to a warning, never abort the caller's primary
// reply.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, text string) error
}

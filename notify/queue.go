package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/open-rails/vipgate/core"
)

// SendArgs is a queued outbound message.
type SendArgs struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

func (SendArgs) Kind() string { return "notify_send" }

// SendWorker delivers queued notices through the transport. A send failure is
// returned so river retries it; duplicates are acceptable per the delivery
// model.
type SendWorker struct {
	river.WorkerDefaults[SendArgs]
	Sender core.Sender
}

func (w *SendWorker) Work(ctx context.Context, job *river.Job[SendArgs]) error {
	return w.Sender.SendMessage(ctx, job.Args.ChatID, job.Args.Text)
}

// Queue is a river-backed Notifier for Postgres deployments. Queued notices
// survive restarts, unlike direct sends.
type Queue struct {
	client *river.Client[pgx.Tx]
}

// NewQueue builds the river client with a single notification worker.
func NewQueue(pool *pgxpool.Pool, sender core.Sender) (*Queue, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, &SendWorker{Sender: sender})
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("river client: %w", err)
	}
	return &Queue{client: client}, nil
}

// MigrateQueue applies river's own schema.
func MigrateQueue(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("river migrate: %w", err)
	}
	return nil
}

func (q *Queue) Start(ctx context.Context) error { return q.client.Start(ctx) }
func (q *Queue) Stop(ctx context.Context) error  { return q.client.Stop(ctx) }

func (q *Queue) NotifyUser(ctx context.Context, userID, text string) error {
	chatID, err := chatIDFor(userID)
	if err != nil {
		return err
	}
	if _, err := q.client.Insert(ctx, SendArgs{ChatID: chatID, Text: text}, nil); err != nil {
		return fmt.Errorf("enqueue notify %s: %w", userID, err)
	}
	return nil
}

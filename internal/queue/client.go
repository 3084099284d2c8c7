package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kryail/settlement/internal/webhook"
	"github.com/kryail/settlement/utils"
)

// Per-queue attempt budgets. Exhausting a budget archives the job for manual
// inspection.
const (
	webhookMaxRetry      = 5
	notificationMaxRetry = 3
	agentMaxRetry        = 5
)

// Enqueuer persists units of work with at-least-once delivery. Consumers must
// tolerate re-delivery; the ledger's provider-reference idempotency is the
// actual correctness boundary, not the queue.
type Enqueuer struct {
	client *asynq.Client
	logger *utils.Logger
}

func NewEnqueuer(redisAddr string, logger *utils.Logger) *Enqueuer {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	return &Enqueuer{client: client, logger: logger}
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// EnqueueWebhook queues a verified provider event for asynchronous settlement.
func (e *Enqueuer) EnqueueWebhook(ctx context.Context, event *webhook.Event) error {
	payload, err := json.Marshal(WebhookTask{
		Event:      event.Name,
		Data:       event.Data,
		ReceivedAt: event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to encode webhook task: %w", err)
	}

	task := asynq.NewTask(TypeWebhookProcess, payload)
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueWebhooks),
		asynq.MaxRetry(webhookMaxRetry),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue webhook event: %w", err)
	}

	e.logger.Infof("Added webhook event to queue: %s (job %s)", event.Name, info.ID)
	return nil
}

// EnqueueNotification queues a user-facing message. Fire-and-forget from the
// settlement core's point of view.
func (e *Enqueuer) EnqueueNotification(ctx context.Context, userID uint, message string) error {
	payload, err := json.Marshal(NotificationTask{UserID: userID, Message: message})
	if err != nil {
		return fmt.Errorf("failed to encode notification task: %w", err)
	}

	_, err = e.client.EnqueueContext(ctx, asynq.NewTask(TypeNotificationDeliver, payload),
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(notificationMaxRetry),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// EnqueueAgentExecution queues an intent for the external agent runtime.
func (e *Enqueuer) EnqueueAgentExecution(ctx context.Context, task AgentTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode agent task: %w", err)
	}

	_, err = e.client.EnqueueContext(ctx, asynq.NewTask(TypeAgentExecute, payload),
		asynq.Queue(QueueAgents),
		asynq.MaxRetry(agentMaxRetry),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue agent execution: %w", err)
	}

	e.logger.Infof("Added agent execution job for user %d", task.UserID)
	return nil
}

// RetryDelay implements the exponential backoff shape shared by all queues:
// 1s, 2s, 4s, ... capped at ten minutes.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	delay := time.Second << uint(n)
	if delay > 10*time.Minute || delay <= 0 {
		return 10 * time.Minute
	}
	return delay
}

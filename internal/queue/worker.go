package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/kryail/settlement/internal/models"
	"github.com/kryail/settlement/internal/notifier"
	"github.com/kryail/settlement/internal/service"
	"github.com/kryail/settlement/internal/webhook"
	"github.com/kryail/settlement/utils"
)

// Worker consumes the webhook and notification queues. The agents queue is
// consumed by the external agent-execution runtime, not here.
//
// Handlers return plain errors to request a retry and wrap asynq.SkipRetry
// for final outcomes. Re-delivery after a crash is safe because the ledger is
// idempotent on provider references.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	svc    *service.Service
	notif  *notifier.Notifier
	logger *utils.Logger
}

func NewWorker(redisAddr string, svc *service.Service, notif *notifier.Notifier, logger *utils.Logger) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				QueueWebhooks:      6,
				QueueNotifications: 3,
			},
			RetryDelayFunc: RetryDelay,
		},
	)

	w := &Worker{server: server, mux: asynq.NewServeMux(), svc: svc, notif: notif, logger: logger}
	w.mux.HandleFunc(TypeWebhookProcess, w.handleWebhook)
	w.mux.HandleFunc(TypeNotificationDeliver, w.handleNotification)
	return w
}

// Run blocks until the server stops (SIGTERM/SIGINT trigger graceful shutdown).
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) handleWebhook(ctx context.Context, task *asynq.Task) error {
	var payload WebhookTask
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed webhook task: %v: %w", err, asynq.SkipRetry)
	}

	event := &webhook.Event{Name: payload.Event, Data: payload.Data, Timestamp: payload.ReceivedAt}
	w.logger.Infof("Processing webhook event: %s", event.Name)

	err := w.svc.ProcessWebhookEvent(ctx, event)
	if err == nil {
		w.logger.Infof("Successfully processed webhook: %s", event.Name)
		return nil
	}

	// Business outcomes and malformed payloads are final: retrying cannot
	// change them.
	if models.IsBusinessError(err) || errors.Is(err, webhook.ErrInvalidEvent) {
		w.logger.Warnf("Webhook %s rejected: %v", event.Name, err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	// Dependency failure. On the last attempt the job is parked for manual
	// inspection and the user gets a final failure notification.
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried >= maxRetry {
		w.logger.Errorf("Webhook %s exhausted %d attempts: %v", event.Name, maxRetry, err)
		w.svc.NotifyWebhookFailure(ctx, event)
	}
	return err
}

func (w *Worker) handleNotification(ctx context.Context, task *asynq.Task) error {
	var payload NotificationTask
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("malformed notification task: %v: %w", err, asynq.SkipRetry)
	}

	w.logger.Infof("Processing notification for user %d", payload.UserID)
	return w.notif.Notify(ctx, payload.UserID, payload.Message)
}

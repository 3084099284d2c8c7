package queue

import (
	"encoding/json"
	"time"
)

// Task type names, one per named queue concern.
const (
	TypeWebhookProcess      = "webhook:process"
	TypeNotificationDeliver = "notification:deliver"
	TypeAgentExecute        = "agent:execute"
)

// Queue names. Workers consume webhooks and notifications; the agents queue
// is consumed by the external agent-execution runtime.
const (
	QueueWebhooks      = "webhooks"
	QueueNotifications = "notifications"
	QueueAgents        = "agents"
)

// WebhookTask carries a verified, de-duplicated provider event to the
// settlement worker.
type WebhookTask struct {
	Event      string          `json:"event"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// NotificationTask asks the dispatcher to deliver one user-facing message.
type NotificationTask struct {
	UserID  uint   `json:"userId"`
	Message string `json:"message"`
}

// AgentTask hands an intent to the external agent-execution collaborator.
type AgentTask struct {
	AgentID string          `json:"agentId"`
	UserID  uint            `json:"userId"`
	Intent  json.RawMessage `json:"intentPayload"`
}

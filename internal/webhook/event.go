package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidEvent marks structural-validation failures. They are rejected at
// the boundary and never reach the queue.
var ErrInvalidEvent = errors.New("invalid webhook event")

// Provider event names routed by the settlement worker.
const (
	EventTransactionCreated = "TRANSACTION.CREATED"
	EventTransactionUpdated = "TRANSACTION.UPDATED"
)

// Event is the transient webhook envelope. Data stays raw until the routing
// step decodes it into the variant matching the event name.
type Event struct {
	Name      string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// TransactionData is the transaction-shaped payload variant carried by
// TRANSACTION.* events.
type TransactionData struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	CustomerID string          `json:"customerId"`
}

// ParseEvent validates the structural shape of a raw payload: a non-empty
// event name and a JSON object as data, independent of signature outcome.
func ParseEvent(raw []byte) (*Event, error) {
	var envelope struct {
		Name      string          `json:"event"`
		Data      json.RawMessage `json:"data"`
		Timestamp time.Time       `json:"timestamp"`
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed payload", ErrInvalidEvent)
	}

	if strings.TrimSpace(envelope.Name) == "" {
		return nil, fmt.Errorf("%w: missing or invalid event type", ErrInvalidEvent)
	}

	if !isJSONObject(envelope.Data) {
		return nil, fmt.Errorf("%w: missing or invalid event data", ErrInvalidEvent)
	}

	event := &Event{
		Name:      envelope.Name,
		Data:      envelope.Data,
		Timestamp: envelope.Timestamp,
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event, nil
}

// IsTransactional reports whether the event is subject to the idempotency
// claim. Non-transactional events always pass through.
func (e *Event) IsTransactional() bool {
	name := strings.ToUpper(e.Name)
	return strings.HasPrefix(name, "TRANSACTION")
}

// Transaction decodes the transaction payload variant.
func (e *Event) Transaction() (*TransactionData, error) {
	var data TransactionData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: bad transaction data: %v", ErrInvalidEvent, err)
	}
	return &data, nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "{")
}

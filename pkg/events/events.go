package events

import "context"

// Account lifecycle event types.
const (
	AccountRegistered = "account.registered"
	AccountConfirmed  = "account.confirmed"
)

// DefaultChannel is the Redis channel account events are published on.
const DefaultChannel = "cadastro:events"

type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

// AccountRegisteredPayload is published after a successful registration.
// ConfirmationPath is set only when the account must confirm its email.
type AccountRegisteredPayload struct {
	AccountID        string `json:"account_id"`
	Email            string `json:"email"`
	ConfirmationPath string `json:"confirmation_path,omitempty"`
}

type AccountConfirmedPayload struct {
	AccountID string `json:"account_id"`
}

package channel

import (
	"context"
	"time"
)

// Name identifies a delivery channel.
type Name string

const (
	Email Name = "email"
	Push  Name = "push"
	SMS   Name = "sms"
	InApp Name = "inApp"
)

// Message is a channel-agnostic outbound message.
//
// To carries the channel-specific address: an email address, a push device
// token, or a phone number. Data carries channel metadata (deep links,
// category tags) that transports may attach to the payload.
type Message struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject,omitempty"`
	Body     string            `json:"body"`
	HTMLBody string            `json:"html_body,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}

// Result reports the outcome of a send attempt.
type Result struct {
	Success   bool   `json:"success"`
	Queued    bool   `json:"queued,omitempty"` // Deferred behind the rate limit, delivery pending
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Transport dispatches a message through a concrete provider and returns the
// provider-assigned message id.
type Transport interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
}

// queuedMessage is a message waiting behind the rate limit.
type queuedMessage struct {
	msg        Message
	enqueuedAt time.Time
}

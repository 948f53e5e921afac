package channel

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// CaptureTransport records sent messages in memory. Intended for tests and
// local wiring where no real provider is available.
type CaptureTransport struct {
	mu       sync.Mutex
	messages []Message
	failWith error
}

// NewCaptureTransport creates an in-memory capturing transport.
func NewCaptureTransport() *CaptureTransport {
	return &CaptureTransport{}
}

// FailWith makes subsequent sends return the given error. Pass nil to
// restore normal behavior.
func (c *CaptureTransport) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWith = err
}

// Send records the message and returns a generated id.
func (c *CaptureTransport) Send(ctx context.Context, msg Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failWith != nil {
		return "", c.failWith
	}

	c.messages = append(c.messages, msg)
	return uuid.NewString(), nil
}

// Messages returns a copy of all captured messages.
func (c *CaptureTransport) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Reset clears captured messages.
func (c *CaptureTransport) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

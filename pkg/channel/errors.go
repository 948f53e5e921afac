package channel

import "errors"

var (
	// ErrTransportNil is returned when a nil transport is provided.
	ErrTransportNil = errors.New("transport cannot be nil")

	// ErrLimiterNil is returned when a nil rate limiter is provided.
	ErrLimiterNil = errors.New("rate limiter cannot be nil")

	// ErrEmptyRecipient is returned when a message has no recipient.
	ErrEmptyRecipient = errors.New("message recipient is required")

	// ErrSenderClosed is returned when sending through a closed sender.
	ErrSenderClosed = errors.New("sender is closed")

	// ErrSendFailed is returned when the underlying transport rejects a message.
	ErrSendFailed = errors.New("failed to send message")

	// ErrInvalidConfig is returned when transport configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid transport configuration")
)

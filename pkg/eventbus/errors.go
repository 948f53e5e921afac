package eventbus

import "errors"

var (
	// ErrStoreNil is returned when a nil store is provided.
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrHandlerNil is returned when subscribing a nil handler.
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrEventTypeEmpty is returned when publishing or subscribing with an
	// empty event type.
	ErrEventTypeEmpty = errors.New("event type cannot be empty")

	// ErrInvalidPriority is returned when publishing with an unknown priority.
	ErrInvalidPriority = errors.New("invalid event priority")

	// ErrEventNotFound is returned by stores when an event does not exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrBusClosed is returned when publishing through a stopped bus.
	ErrBusClosed = errors.New("event bus is stopped")
)

package notifier

import "errors"

var (
	// ErrTemplateStoreNil is returned when the processor has no template store.
	ErrTemplateStoreNil = errors.New("template store cannot be nil")

	// ErrSettingsStoreNil is returned when the processor has no settings store.
	ErrSettingsStoreNil = errors.New("settings store cannot be nil")

	// ErrProfileStoreNil is returned when the processor has no profile store.
	ErrProfileStoreNil = errors.New("profile store cannot be nil")

	// ErrStorageNil is returned when the processor has no record storage.
	ErrStorageNil = errors.New("record storage cannot be nil")

	// ErrEventNil is returned when processing is invoked without an event.
	ErrEventNil = errors.New("event cannot be nil")

	// ErrRecordNotFound is returned when a notification record id is unknown.
	ErrRecordNotFound = errors.New("notification record not found")

	// ErrProfileNotFound is returned when a user has no profile. The
	// processor treats it as a per-user skip, not a pipeline failure.
	ErrProfileNotFound = errors.New("user profile not found")

	// ErrNoAddress is returned when a channel is selected but the profile
	// carries no address for it.
	ErrNoAddress = errors.New("no address for channel")
)

package digest

import "errors"

var (
	// ErrSettingsStoreNil is returned when the manager has no settings store.
	ErrSettingsStoreNil = errors.New("settings store cannot be nil")

	// ErrStorageNil is returned when the manager has no record storage.
	ErrStorageNil = errors.New("record storage cannot be nil")

	// ErrProfileStoreNil is returned when the manager has no profile store.
	ErrProfileStoreNil = errors.New("profile store cannot be nil")

	// ErrRunInProgress is returned when a cadence run is requested while the
	// previous run of the same cadence has not finished.
	ErrRunInProgress = errors.New("digest run already in progress")
)

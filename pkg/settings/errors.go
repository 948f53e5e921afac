package settings

import "errors"

var (
	// ErrUserIDEmpty is returned when an operation is missing the user id.
	ErrUserIDEmpty = errors.New("user id cannot be empty")

	// ErrInvalidClockTime is returned when an "HH:MM" value cannot be parsed.
	ErrInvalidClockTime = errors.New("invalid clock time")

	// ErrInvalidTimezone is returned when a quiet-hours timezone is unknown.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidCadence is returned for a digest cadence outside daily|weekly.
	ErrInvalidCadence = errors.New("invalid digest cadence")
)

package settings

import "context"

// Store is the persistence boundary for user settings.
type Store interface {
	// GetOrCreate returns the user's setting, creating it with Defaults on
	// first access.
	GetOrCreate(ctx context.Context, userID string) (*Setting, error)

	// Update replaces the stored setting for its user.
	Update(ctx context.Context, setting *Setting) error

	// ListDigestUsers returns every setting where at least one channel
	// delivers via digest and the digest cadence matches.
	ListDigestUsers(ctx context.Context, cadence Cadence) ([]*Setting, error)
}

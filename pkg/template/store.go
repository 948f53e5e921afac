package template

import "context"

// Store is the persistence boundary for templates.
type Store interface {
	// GetActive returns the active template with the given id.
	// ErrTemplateNotFound when the id is unknown, ErrTemplateInactive when
	// the template exists but is deactivated.
	GetActive(ctx context.Context, templateID string) (*Template, error)

	// Put creates or replaces a template.
	Put(ctx context.Context, tpl *Template) error
}

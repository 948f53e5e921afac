package template

import "errors"

var (
	// ErrTemplateNotFound is returned when no template exists for the id.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateInactive is returned when the template exists but is
	// deactivated. Callers treat it the same as not found.
	ErrTemplateInactive = errors.New("template is inactive")

	// ErrTemplateInvalid is returned when a template fails validation.
	ErrTemplateInvalid = errors.New("invalid template")

	// ErrCatalogInvalid is returned when a YAML catalog cannot be parsed.
	ErrCatalogInvalid = errors.New("invalid template catalog")

	// ErrContentMissing is returned when a channel has no content in any
	// language.
	ErrContentMissing = errors.New("template channel has no content")
)

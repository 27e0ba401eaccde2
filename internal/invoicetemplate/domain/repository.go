package domain

import "context"

// Repository is the key/value store behind named templates.
type Repository interface {
	// ListNames returns every stored name once, ordered by first save.
	ListNames(ctx context.Context) ([]string, error)
	// FindByName returns nil when no template has that name.
	FindByName(ctx context.Context, name string) (*Template, error)
	// Upsert creates the template or replaces its snapshot.
	Upsert(ctx context.Context, tmpl *Template) error
}

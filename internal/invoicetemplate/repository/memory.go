package repository

import (
	"context"
	"sync"

	templatedomain "github.com/smallbiznis/invoicer/internal/invoicetemplate/domain"
)

type memoryRepo struct {
	mu    sync.RWMutex
	names []string
	items map[string]templatedomain.Template
}

// NewMemoryRepository keeps templates for the lifetime of the process.
func NewMemoryRepository() templatedomain.Repository {
	return &memoryRepo{items: make(map[string]templatedomain.Template)}
}

func (r *memoryRepo) ListNames(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.names))
	copy(names, r.names)
	return names, nil
}

func (r *memoryRepo) FindByName(ctx context.Context, name string) (*templatedomain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.items[name]
	if !ok {
		return nil, nil
	}
	tmpl.Snapshot = append([]byte(nil), tmpl.Snapshot...)
	return &tmpl, nil
}

func (r *memoryRepo) Upsert(ctx context.Context, tmpl *templatedomain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *tmpl
	stored.Snapshot = append([]byte(nil), tmpl.Snapshot...)
	if existing, ok := r.items[tmpl.Name]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		r.names = append(r.names, tmpl.Name)
	}
	r.items[tmpl.Name] = stored
	return nil
}

package domain

import (
	"context"

	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
)

type Service interface {
	List(ctx context.Context) ([]string, error)
	Save(ctx context.Context, name string, inv invoicedomain.Invoice) error
	// Load returns the stored snapshot as written. Older shapes are mapped
	// onto the current model; derived fields are left to the engine.
	Load(ctx context.Context, name string) (invoicedomain.Invoice, error)
}

package domain

import (
	"context"
	"time"
)

// SessionView is what the presentation layer reads between reductions.
type SessionView struct {
	ID      string  `json:"id"`
	Invoice Invoice `json:"invoice"`

	// The engine does not enforce these; callers disable the inputs.
	AmountPaidEditable bool `json:"amountPaidEditable"`
	ShippingEditable   bool `json:"shippingEditable"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Service owns editing sessions. Each session has exactly one writer.
type Service interface {
	Create(ctx context.Context) (SessionView, error)
	Get(ctx context.Context, id string) (SessionView, error)
	Apply(ctx context.Context, id string, intent Intent) (SessionView, error)
	Snapshot(ctx context.Context, id string) (Invoice, error)
	Delete(ctx context.Context, id string) error
}

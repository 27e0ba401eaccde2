package engine

import (
	"fmt"
	"slices"

	"github.com/smallbiznis/invoicer/internal/invoice/domain"
)

// UpdateItem edits one field of the item with itemID and re-aggregates.
// The line total is computed from the new value of the edited field and the
// current value of the other one. An unknown itemID leaves state unchanged.
func UpdateItem(state domain.Invoice, itemID string, field domain.ItemField, value any) (domain.Invoice, error) {
	if !field.Valid() {
		return state, fmt.Errorf("%w: item field %q", domain.ErrUnknownField, field)
	}

	idx := state.FindItem(itemID)
	if idx < 0 {
		return state, nil
	}

	next := state.Clone()
	item := &next.Items[idx]
	switch field {
	case domain.ItemFieldDescription:
		item.Description = toText(value)
	case domain.ItemFieldQuantity:
		item.Quantity = toQuantity(value)
	case domain.ItemFieldUnitPrice:
		item.UnitPrice = toAmount(value, maxUnitPrice)
	}
	item.Total = lineTotal(*item)

	return RecomputeAggregates(next), nil
}

// AddItem appends an empty item with quantity 1.
func AddItem(state domain.Invoice, id string) domain.Invoice {
	next := state.Clone()
	next.Items = append(next.Items, newLineItem(id))
	return RecomputeAggregates(next)
}

// RemoveItem drops the item with itemID. The last remaining item is never removed.
func RemoveItem(state domain.Invoice, itemID string) domain.Invoice {
	if len(state.Items) <= 1 || state.FindItem(itemID) < 0 {
		return state
	}

	next := state.Clone()
	next.Items = slices.DeleteFunc(next.Items, func(item domain.LineItem) bool {
		return item.ID == itemID
	})
	return RecomputeAggregates(next)
}

func newLineItem(id string) domain.LineItem {
	return domain.LineItem{ID: id, Quantity: 1}
}

func lineTotal(item domain.LineItem) float64 {
	return float64(item.Quantity) * item.UnitPrice
}

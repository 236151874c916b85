package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one persistent row: at most one per (user, product), quantity
// always >= 1. A decrement that would reach zero is a no-op; removal is an
// explicit separate action.
type CartLine struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartEntry pairs a line with the product snapshot it was joined against.
type CartEntry struct {
	Line    CartLine `json:"line"`
	Product Product  `json:"product"`
}

// CartView is the cart as currently served: the store join for one user,
// ordered by line creation time so reloads are stable.
type CartView struct {
	UserID  uuid.UUID   `json:"user_id"`
	Entries []CartEntry `json:"entries"`
	Total   float64     `json:"total"`
}

func (v *CartView) Empty() bool {
	return v == nil || len(v.Entries) == 0
}

// EmptyCartView is what the storefront shows when there is nothing to show,
// including when the store itself is unreachable.
func EmptyCartView(userID uuid.UUID) *CartView {
	return &CartView{UserID: userID, Entries: []CartEntry{}, Total: 0}
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// Quantity deliberately has no min tag: values below 1 are rejected as a
// no-op by the cart service, not as a validation failure.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

package models

import "github.com/google/uuid"

// ManifestItem carries the cart line id so a completed payment can later
// reconcile and clear exactly these lines. DeclaredUnitPrice is advisory
// only; it is never used for settlement.
type ManifestItem struct {
	ProductID         uuid.UUID `json:"product_id"`
	Name              string    `json:"name"`
	DeclaredUnitPrice float64   `json:"declared_unit_price"`
	Quantity          int       `json:"quantity"`
	ImageURL          string    `json:"image_url,omitempty"`
	CartLineID        uuid.UUID `json:"cart_line_id"`
}

// CheckoutManifest is the minimal item list sent across the payment trust
// boundary. The gateway re-derives authoritative prices from the product
// store before creating a chargeable session.
type CheckoutManifest struct {
	UserID uuid.UUID      `json:"user_id"`
	Items  []ManifestItem `json:"items"`
}

// CheckoutResponse hands the caller the gateway redirect URL. Navigation is
// terminal: the orchestrator holds no further responsibility for the payment.
type CheckoutResponse struct {
	URL string `json:"url"`
}

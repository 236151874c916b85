package service

import (
	"context"

	"github.com/google/uuid"
	apperrors "github.com/shopsphere/storefront-core/internal/errors"
	"github.com/shopsphere/storefront-core/internal/models"
	"github.com/shopsphere/storefront-core/pkg/gateway"
)

// CheckoutService converts the current cart view into a payment session at
// the gateway boundary. It shapes and transmits the manifest; it never
// computes the amount charged. A rejected gateway call leaves the cart
// exactly as it was.
type CheckoutService interface {
	Initiate(ctx context.Context, userID uuid.UUID) (*models.CheckoutResponse, error)
}

type checkoutService struct {
	carts   CartService
	gateway gateway.Client
}

func NewCheckoutService(carts CartService, gw gateway.Client) CheckoutService {
	return &checkoutService{carts: carts, gateway: gw}
}

func (s *checkoutService) Initiate(ctx context.Context, userID uuid.UUID) (*models.CheckoutResponse, error) {

	view, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if view.Empty() {
		return nil, apperrors.EmptyCartError("Cart is empty")
	}

	manifest := BuildManifest(view)

	url, err := s.gateway.CreateSession(ctx, manifest)
	if err != nil {
		return nil, apperrors.GatewayRejectedError("Payment gateway rejected the checkout").WithError(err)
	}

	// terminal handoff: the caller navigates to the URL, and the payment
	// outcome is no longer this service's responsibility
	return &models.CheckoutResponse{URL: url}, nil
}

// BuildManifest copies the view into the minimal item list sent across the
// trust boundary. Prices are copied as they were displayed at call time;
// they are declared hints only. Cart line ids are carried so a completed
// payment can later clear those exact lines.
func BuildManifest(view *models.CartView) *models.CheckoutManifest {

	items := make([]models.ManifestItem, 0, len(view.Entries))

	for _, entry := range view.Entries {
		items = append(items, models.ManifestItem{
			ProductID:         entry.Product.ID,
			Name:              entry.Product.Name,
			DeclaredUnitPrice: entry.Product.Price,
			Quantity:          entry.Line.Quantity,
			ImageURL:          entry.Product.ImageURL,
			CartLineID:        entry.Line.ID,
		})
	}

	return &models.CheckoutManifest{
		UserID: view.UserID,
		Items:  items,
	}
}

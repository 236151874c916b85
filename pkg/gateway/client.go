// Package gateway is the payment trust boundary. It turns a checkout
// manifest into a hosted Stripe Checkout Session and hands back the redirect
// URL. Unit prices are re-derived from the product store here; the declared
// prices in the manifest are never used for the amount charged.
package gateway

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopsphere/storefront-core/internal/config"
	"github.com/shopsphere/storefront-core/internal/models"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
)

// PriceSource yields the authoritative product record for repricing.
// Satisfied by the product repository.
type PriceSource interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type Client interface {
	CreateSession(ctx context.Context, manifest *models.CheckoutManifest) (string, error)
}

type stripeGateway struct {
	prices PriceSource
	cfg    *config.Stripe
}

func NewStripeGateway(prices PriceSource, cfg *config.Stripe) Client {
	stripe.Key = cfg.APIKey

	return &stripeGateway{prices: prices, cfg: cfg}
}

func (g *stripeGateway) CreateSession(ctx context.Context, manifest *models.CheckoutManifest) (string, error) {

	params, err := g.sessionParams(ctx, manifest)
	if err != nil {
		return "", err
	}

	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("creating checkout session: %w", err)
	}

	return s.URL, nil
}

// sessionParams reprices every manifest item against the product store and
// shapes the Stripe request. Cart line ids ride along in the session
// metadata so a completed payment can reconcile and clear those exact lines.
func (g *stripeGateway) sessionParams(ctx context.Context, manifest *models.CheckoutManifest) (*stripe.CheckoutSessionParams, error) {

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(manifest.Items))
	lineIDs := make([]string, 0, len(manifest.Items))

	for _, item := range manifest.Items {

		product, err := g.prices.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("repricing product %s: %w", item.ProductID, err)
		}

		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(product.Name),
		}
		if product.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{product.ImageURL})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(g.cfg.Currency),
				ProductData: productData,
				// authoritative price, never item.DeclaredUnitPrice
				UnitAmount: stripe.Int64(toMinorUnits(product.Price)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})

		lineIDs = append(lineIDs, item.CartLineID.String())
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(g.cfg.SuccessURL),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		ClientReferenceID: stripe.String(manifest.UserID.String()),
	}
	params.Context = ctx

	params.AddMetadata("user_id", manifest.UserID.String())
	params.AddMetadata("cart_line_ids", strings.Join(lineIDs, ","))

	return params, nil
}

func toMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	apperrors "github.com/shopsphere/storefront-core/internal/errors"
	"github.com/shopsphere/storefront-core/internal/models"
	repository "github.com/shopsphere/storefront-core/internal/repositories"
)

// CartService is the cart manager: every operation takes the acting user id
// explicitly and returns the authoritative post-operation view, re-read from
// the store, so callers never hold a view that diverged from persistence.
type CartService interface {
	Load(ctx context.Context, userID uuid.UUID) (*models.CartView, error)
	AddOrIncrement(ctx context.Context, userID, productID uuid.UUID) (*models.CartView, error)
	SetQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartView, error)
	Remove(ctx context.Context, userID, lineID uuid.UUID) (*models.CartView, error)
}

type cartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{repo: repo, products: products}
}

func (s *cartService) Load(ctx context.Context, userID uuid.UUID) (*models.CartView, error) {

	entries, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to load cart").WithError(err)
	}

	view := &models.CartView{
		UserID:  userID,
		Entries: entries,
	}
	view.Total = Total(view)

	return view, nil
}

// AddOrIncrement creates a line with quantity 1 on first add and increments
// the existing line on every subsequent add. The upsert keys on
// (user, product), so N adds always converge on a single line of quantity N.
func (s *cartService) AddOrIncrement(ctx context.Context, userID, productID uuid.UUID) (*models.CartView, error) {

	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to look up product").WithError(err)
	}

	if _, err := s.repo.UpsertLine(ctx, userID, productID); err != nil {
		return nil, apperrors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	return s.Load(ctx, userID)
}

// SetQuantity persists the new quantity for a line the user owns. A quantity
// below 1 is a no-op: the store is not touched and the current view is
// returned unchanged. Removal is a separate, explicit action.
func (s *cartService) SetQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartView, error) {

	if quantity < 1 {
		return s.Load(ctx, userID)
	}

	if err := s.repo.UpdateQuantity(ctx, lineID, userID, quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Cart line not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to update quantity").WithError(err)
	}

	return s.Load(ctx, userID)
}

func (s *cartService) Remove(ctx context.Context, userID, lineID uuid.UUID) (*models.CartView, error) {

	if err := s.repo.DeleteLine(ctx, lineID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Cart line not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to remove cart line").WithError(err)
	}

	return s.Load(ctx, userID)
}

// Total sums quantity times unit price across the view. Display only: the
// charged amount is always re-derived behind the payment gateway boundary.
func Total(view *models.CartView) float64 {

	var total float64

	if view == nil {
		return 0
	}

	for _, entry := range view.Entries {
		total += float64(entry.Line.Quantity) * entry.Product.Price
	}

	return total
}

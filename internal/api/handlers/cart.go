package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopsphere/storefront-core/internal/api/middleware"
	appErrors "github.com/shopsphere/storefront-core/internal/errors"
	"github.com/shopsphere/storefront-core/internal/metrics"
	"github.com/shopsphere/storefront-core/internal/models"
	service "github.com/shopsphere/storefront-core/internal/services"
	"github.com/shopsphere/storefront-core/internal/utils"
	"github.com/shopsphere/storefront-core/internal/utils/response"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// GetCart degrades to an empty view when the store is unreachable: the
// storefront page still renders, the failure only shows up in the logs.
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, appErrors.UnauthorizedError("Authentication required"))
			return
		}

		logger := middleware.LoggerFromContext(r.Context())

		view, err := h.cartService.Load(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Cart load failed, serving empty cart",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Success(w, http.StatusOK, models.EmptyCartView(claims.UserID))

			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, appErrors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		logger := middleware.LoggerFromContext(r.Context())

		view, err := h.cartService.AddOrIncrement(r.Context(), claims.UserID, req.ProductID)
		if err != nil {
			logger.Error("Failed to add item to cart",
				slog.String("userId", claims.UserID.String()),
				slog.String("productId", req.ProductID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		metrics.CartMutation("add")
		logger.Info("Item added to cart",
			slog.String("userId", claims.UserID.String()),
			slog.String("productId", req.ProductID.String()))
		response.Success(w, http.StatusOK, view)
	}
}

func (h *CartHandler) UpdateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, appErrors.UnauthorizedError("Authentication required"))
			return
		}

		lineID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid cart line ID"))
			return
		}

		var req models.UpdateQuantityRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		logger := middleware.LoggerFromContext(r.Context())

		view, err := h.cartService.SetQuantity(r.Context(), claims.UserID, lineID, req.Quantity)
		if err != nil {
			logger.Error("Failed to update cart quantity",
				slog.String("userId", claims.UserID.String()),
				slog.String("lineId", lineID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		metrics.CartMutation("set_quantity")
		response.Success(w, http.StatusOK, view)
	}
}

func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, appErrors.UnauthorizedError("Authentication required"))
			return
		}

		lineID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, appErrors.BadRequestError("Invalid cart line ID"))
			return
		}

		logger := middleware.LoggerFromContext(r.Context())

		view, err := h.cartService.Remove(r.Context(), claims.UserID, lineID)
		if err != nil {
			logger.Error("Failed to remove cart item",
				slog.String("userId", claims.UserID.String()),
				slog.String("lineId", lineID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		metrics.CartMutation("remove")
		logger.Info("Cart item removed",
			slog.String("userId", claims.UserID.String()),
			slog.String("lineId", lineID.String()))
		response.Success(w, http.StatusOK, view)
	}
}

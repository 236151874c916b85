package handlers

import (
	"log/slog"
	"net/http"

	"github.com/shopsphere/storefront-core/internal/api/middleware"
	appErrors "github.com/shopsphere/storefront-core/internal/errors"
	"github.com/shopsphere/storefront-core/internal/metrics"
	service "github.com/shopsphere/storefront-core/internal/services"
	"github.com/shopsphere/storefront-core/internal/utils/response"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func checkoutOutcome(err error) string {
	if appErr, ok := appErrors.IsAppError(err); ok {
		switch appErr.Code {
		case appErrors.ErrCodeEmptyCart:
			return "empty_cart"
		case appErrors.ErrCodeGatewayRejected:
			return "rejected"
		}
	}

	return "failed"
}

// InitiateCheckout hands the current cart to the payment gateway and returns
// the redirect URL. Once the URL is out the door, payment completion is the
// gateway's business, not ours.
func (h *CheckoutHandler) InitiateCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, appErrors.UnauthorizedError("Authentication required"))
			return
		}

		logger := middleware.LoggerFromContext(r.Context())

		resp, err := h.checkoutService.Initiate(r.Context(), claims.UserID)
		if err != nil {
			metrics.CheckoutOutcome(checkoutOutcome(err))
			logger.Error("Checkout failed",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		metrics.CheckoutOutcome("created")
		logger.Info("Checkout session created", slog.String("userId", claims.UserID.String()))
		response.Success(w, http.StatusOK, resp)
	}
}

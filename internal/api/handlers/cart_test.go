package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopsphere/storefront-core/internal/api/handlers"
	appErrors "github.com/shopsphere/storefront-core/internal/errors"
	"github.com/shopsphere/storefront-core/internal/models"
	"github.com/shopsphere/storefront-core/internal/testutils"
	"github.com/shopsphere/storefront-core/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupCartTest() (*MockCartService, *handlers.CartHandler) {
	mockCartService := new(MockCartService)
	cartHandler := handlers.NewCartHandler(mockCartService)

	return mockCartService, cartHandler
}

func decodeAPIResponse(t *testing.T, recorder *httptest.ResponseRecorder) *response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))

	return &resp
}

func TestGetCartHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - Returns Current View", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, nil)
		recorder := httptest.NewRecorder()

		view := &models.CartView{
			UserID: userID,
			Entries: []models.CartEntry{
				{
					Line:    models.CartLine{ID: uuid.New(), UserID: userID, Quantity: 2},
					Product: models.Product{ID: uuid.New(), Name: "Desk Lamp", Price: 10.00},
				},
			},
			Total: 20.00,
		}

		mockCartService.On("Load", mock.Anything, userID).Return(view, nil).Once()

		// Act
		cartHandler.GetCart()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.True(t, resp.Success)
		mockCartService.AssertExpectations(t)
	})

	t.Run("Success - Store Failure Degrades To Empty View", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockCartService.On("Load", mock.Anything, userID).
			Return(nil, appErrors.DatabaseError("connection refused")).Once()

		// Act
		cartHandler.GetCart()(recorder, req)

		// Assert: still a 200 with an empty cart, never an error page
		assert.Equal(t, http.StatusOK, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.True(t, resp.Success)

		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)

		var view models.CartView
		require.NoError(t, json.Unmarshal(data, &view))
		assert.Empty(t, view.Entries)
		assert.Zero(t, view.Total)
	})

	t.Run("Failure - Unauthenticated", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/cart", nil, nil)
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.GetCart()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		mockCartService.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})
}

func TestAddItemHandler(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("Success - Adds Item", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		body, _ := json.Marshal(models.AddItemRequest{ProductID: productID})
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart/items", bytes.NewBuffer(body), userID, nil)
		recorder := httptest.NewRecorder()

		view := &models.CartView{UserID: userID}

		mockCartService.On("AddOrIncrement", mock.Anything, userID, productID).Return(view, nil).Once()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Unknown Product", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		body, _ := json.Marshal(models.AddItemRequest{ProductID: productID})
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart/items", bytes.NewBuffer(body), userID, nil)
		recorder := httptest.NewRecorder()

		mockCartService.On("AddOrIncrement", mock.Anything, userID, productID).
			Return(nil, appErrors.NotFoundError("Product not found")).Once()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)

		resp := decodeAPIResponse(t, recorder)
		assert.False(t, resp.Success)
		assert.Equal(t, appErrors.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("Failure - Missing Product ID", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(`{}`), userID, nil)
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockCartService.AssertNotCalled(t, "AddOrIncrement", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateQuantityHandler(t *testing.T) {
	userID := uuid.New()
	lineID := uuid.New()

	t.Run("Success - Sets Quantity", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		body, _ := json.Marshal(models.UpdateQuantityRequest{Quantity: 3})
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/cart/items/"+lineID.String(),
			bytes.NewBuffer(body), userID, map[string]string{"id": lineID.String()})
		recorder := httptest.NewRecorder()

		view := &models.CartView{UserID: userID}

		mockCartService.On("SetQuantity", mock.Anything, userID, lineID, 3).Return(view, nil).Once()

		// Act
		cartHandler.UpdateQuantity()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Malformed Line ID", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		body, _ := json.Marshal(models.UpdateQuantityRequest{Quantity: 3})
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/cart/items/not-a-uuid",
			bytes.NewBuffer(body), userID, map[string]string{"id": "not-a-uuid"})
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.UpdateQuantity()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockCartService.AssertNotCalled(t, "SetQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRemoveItemHandler(t *testing.T) {
	userID := uuid.New()
	lineID := uuid.New()

	t.Run("Success - Removes Line", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/cart/items/"+lineID.String(),
			nil, userID, map[string]string{"id": lineID.String()})
		recorder := httptest.NewRecorder()

		view := &models.CartView{UserID: userID}

		mockCartService.On("Remove", mock.Anything, userID, lineID).Return(view, nil).Once()

		// Act
		cartHandler.RemoveItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Line Not Found", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := testutils.CreateTestRequestWithContext(http.MethodDelete, "/api/v1/cart/items/"+lineID.String(),
			nil, userID, map[string]string{"id": lineID.String()})
		recorder := httptest.NewRecorder()

		mockCartService.On("Remove", mock.Anything, userID, lineID).
			Return(nil, appErrors.NotFoundError("Cart item not found")).Once()

		// Act
		cartHandler.RemoveItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

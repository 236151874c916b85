package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopsphere/storefront-core/internal/api/middleware"
	appErrors "github.com/shopsphere/storefront-core/internal/errors"
	"github.com/shopsphere/storefront-core/internal/models"
	"github.com/shopsphere/storefront-core/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const loginRoute = "/auth/login"

type MockRoleResolver struct {
	mock.Mock
}

func (m *MockRoleResolver) RoleOf(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(models.Role), args.Error(1)
}

func protectedHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRole(t *testing.T) {
	userID := uuid.New()

	t.Run("Failure - No Session Redirects", func(t *testing.T) {
		// Arrange
		mockResolver := new(MockRoleResolver)
		gate := middleware.NewRoleGate(mockResolver, loginRoute)

		called := false
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/cart", nil, nil)
		recorder := httptest.NewRecorder()

		// Act
		gate.RequireRole(models.RoleBuyer, protectedHandler(&called))(recorder, req)

		// Assert
		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, loginRoute, recorder.Header().Get("Location"))
		assert.False(t, called, "handler must never run without a session")
		mockResolver.AssertNotCalled(t, "RoleOf", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Wrong Role Redirects", func(t *testing.T) {
		// Arrange
		mockResolver := new(MockRoleResolver)
		gate := middleware.NewRoleGate(mockResolver, loginRoute)

		called := false
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockResolver.On("RoleOf", mock.Anything, userID).Return(models.RoleSeller, nil).Once()

		// Act
		gate.RequireRole(models.RoleBuyer, protectedHandler(&called))(recorder, req)

		// Assert
		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, loginRoute, recorder.Header().Get("Location"))
		assert.False(t, called, "a session alone is not authorization")
	})

	t.Run("Failure - Role Lookup Error Fails Closed", func(t *testing.T) {
		// Arrange
		mockResolver := new(MockRoleResolver)
		gate := middleware.NewRoleGate(mockResolver, loginRoute)

		called := false
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockResolver.On("RoleOf", mock.Anything, userID).
			Return(models.Role(""), appErrors.DatabaseError("connection refused")).Once()

		// Act
		gate.RequireRole(models.RoleBuyer, protectedHandler(&called))(recorder, req)

		// Assert: silent redirect, no error page
		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.False(t, called)
	})

	t.Run("Success - Matching Role Runs Handler", func(t *testing.T) {
		// Arrange
		mockResolver := new(MockRoleResolver)
		gate := middleware.NewRoleGate(mockResolver, loginRoute)

		called := false
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockResolver.On("RoleOf", mock.Anything, userID).Return(models.RoleBuyer, nil).Once()

		// Act
		gate.RequireRole(models.RoleBuyer, protectedHandler(&called))(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, called)
	})

	t.Run("Success - Role Compare Is Case-Insensitive", func(t *testing.T) {
		// Arrange
		mockResolver := new(MockRoleResolver)
		gate := middleware.NewRoleGate(mockResolver, loginRoute)

		called := false
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockResolver.On("RoleOf", mock.Anything, userID).Return(models.Role("BUYER"), nil).Once()

		// Act
		gate.RequireRole(models.RoleBuyer, protectedHandler(&called))(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, called)
	})

	t.Run("Resolves Role Exactly Once Per Request", func(t *testing.T) {
		// Arrange
		mockResolver := new(MockRoleResolver)
		gate := middleware.NewRoleGate(mockResolver, loginRoute)

		called := false
		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/cart", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockResolver.On("RoleOf", mock.Anything, userID).Return(models.RoleBuyer, nil).Once()

		// Act
		gate.RequireRole(models.RoleBuyer, protectedHandler(&called))(recorder, req)

		// Assert
		mockResolver.AssertNumberOfCalls(t, "RoleOf", 1)
	})
}

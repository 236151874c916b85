package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopsphere/storefront-core/internal/models"
)

// RoleResolver answers what role is stored for a user. Implemented by the
// session service; injected here so the gate can be tested by substitution.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (models.Role, error)
}

// RoleGate blocks a protected route subtree until authorization resolves.
// Every failure path redirects to the login route without rendering anything:
// auth failures fail closed and silent.
type RoleGate struct {
	roles      RoleResolver
	loginRoute string
}

func NewRoleGate(roles RoleResolver, loginRoute string) *RoleGate {
	return &RoleGate{roles: roles, loginRoute: loginRoute}
}

// RequireRole resolves the session and the stored role exactly once per
// request, then compares the role against allowedRole case-insensitively.
// The wrapped handler runs only when the comparison passes; a session alone
// is not authorization.
func (g *RoleGate) RequireRole(allowedRole models.Role, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("No session for protected route")
			g.redirect(w, r)
			return
		}

		role, err := g.roles.RoleOf(r.Context(), claims.UserID)
		if err != nil {
			// lookup miss or store failure: treat as unauthenticated
			logger.Warn("Role lookup failed for protected route",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			g.redirect(w, r)
			return
		}

		if !role.Equals(allowedRole) {
			logger.Warn("Role mismatch for protected route",
				slog.String("userId", claims.UserID.String()),
				slog.String("role", string(role)),
				slog.String("allowedRole", string(allowedRole)))
			g.redirect(w, r)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (g *RoleGate) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, g.loginRoute, http.StatusSeeOther)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopsphere/storefront-core/internal/cache"
	"github.com/shopsphere/storefront-core/internal/config"
	apperrors "github.com/shopsphere/storefront-core/internal/errors"
	"github.com/shopsphere/storefront-core/internal/models"
	repository "github.com/shopsphere/storefront-core/internal/repositories"
)

// SessionService answers "what role does this user hold". The role gate
// resolves it once per protected request; lookups are cached briefly so a
// page of gated routes does not hammer the users table.
type SessionService struct {
	users   repository.UserRepository
	cache   cache.Cache
	cacheCfg *config.CacheConfig
}

func NewSessionService(users repository.UserRepository, c cache.Cache, cacheCfg *config.CacheConfig) *SessionService {
	return &SessionService{users: users, cache: c, cacheCfg: cacheCfg}
}

func (s *SessionService) RoleOf(ctx context.Context, userID uuid.UUID) (models.Role, error) {

	key := cache.Key(cache.RoleKeyPrefix, userID.String())

	if s.cache != nil {
		var cached models.Role

		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			slog.Debug("Role cache read failed", slog.String("error", err.Error()))
		} else if found {
			return cached, nil
		}
	}

	role, err := s.users.GetRole(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.NotFoundError("Role not found").WithError(err)
		}

		return "", apperrors.DatabaseError("Failed to look up role").WithError(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, role, s.cacheCfg.RoleTTL); err != nil {
			slog.Debug("Role cache write failed", slog.String("error", err.Error()))
		}
	}

	return role, nil
}

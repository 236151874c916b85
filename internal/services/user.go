package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopsphere/storefront-core/internal/config"
	apperrors "github.com/shopsphere/storefront-core/internal/errors"
	"github.com/shopsphere/storefront-core/internal/models"
	repository "github.com/shopsphere/storefront-core/internal/repositories"
	"github.com/shopsphere/storefront-core/pkg/email"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo      repository.UserRepository
	rateLimit repository.RateLimitRepository
	email     email.Sender
	security  *config.Security
}

func NewUserService(repo repository.UserRepository, rateLimit repository.RateLimitRepository, sender email.Sender, security *config.Security) *UserService {
	return &UserService{
		repo:      repo,
		rateLimit: rateLimit,
		email:     sender,
		security:  security,
	}
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {

	existingUser, _ := s.repo.GetUserByEmail(ctx, req.Email)
	if existingUser != nil {
		return nil, apperrors.DuplicateEntryError("Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.InternalError("Failed to secure password").WithError(err)
	}

	role := models.Role(req.Role)
	if role == "" {
		role = models.RoleBuyer
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     role,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, apperrors.DatabaseError("Failed to create user").WithError(err)
	}

	s.sendWelcomeEmail(user)

	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {

	allowed, remaining, retryAfter, err := s.rateLimit.CheckLoginRateLimit(ctx, req.Email)
	if err != nil {
		return nil, apperrors.ThirdPartyError("Rate limit check failed").WithError(err)
	}

	if !allowed {
		return &models.LoginResponse{
			Success:    false,
			Message:    "Too many login attempts. Please try again later.",
			RetryAfter: retryAfter,
		}, nil
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return &models.LoginResponse{
			Success:        false,
			Message:        "Invalid email or password",
			RemainingTries: remaining,
		}, nil
	}

	claims := &models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.security.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.security.JWTKey))
	if err != nil {
		return nil, apperrors.InternalError("Failed to generate authentication token").WithError(err)
	}

	return &models.LoginResponse{
		Success:   true,
		Token:     tokenString,
		ExpiresIn: int(time.Until(claims.ExpiresAt.Time).Seconds()),
	}, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("User not found").WithError(err)
		}

		return nil, apperrors.DatabaseError("Failed to fetch user").WithError(err)
	}

	return user, nil
}

// fire-and-forget: a failed welcome email never fails registration
func (s *UserService) sendWelcomeEmail(user *models.User) {
	if s.email == nil {
		return
	}

	go func() {
		err := s.email.Send(user.Email,
			"Welcome to ShopSphere",
			"Welcome, "+user.Name+"! Your account is ready.",
			"<p>Welcome, "+user.Name+"! Your account is ready.</p>")
		if err != nil {
			slog.Warn("Failed to send welcome email",
				slog.String("userId", user.ID.String()),
				slog.String("error", err.Error()))
		}
	}()
}

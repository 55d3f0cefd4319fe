package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	appcart "github.com/stephanos-estetic/backend/internal/application/cart"
	"github.com/stephanos-estetic/backend/internal/domain/identity"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stephanos-estetic/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// CartMerger folds an anonymous cart into the user's cart on sign-in
type CartMerger interface {
	Merge(ctx context.Context, anonymousID, userID uuid.UUID) (*appcart.CartResponse, error)
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo       identity.UserRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	carts          CartMerger
	config         AuthServiceConfig
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// SetCartMerger enables merging the anonymous cart on login
func (s *AuthService) SetCartMerger(m CartMerger) {
	s.carts = m
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Register creates a customer account and signs it in
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, cartID *uuid.UUID) (*AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	taken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with that username already exists")
	}
	taken, err = s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with that email already exists")
	}

	user, err := identity.NewUser(username, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if err := user.SetNames(req.FirstName, req.LastName, req.FullName); err != nil {
		return nil, err
	}
	if err := user.SetPhone(req.Phone); err != nil {
		return nil, err
	}
	user.RecordLoginSuccess(s.now())

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	events := user.GetDomainEvents()
	user.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish user events", zap.Error(err))
		}
	}

	return s.signIn(ctx, user, cartID)
}

// Login authenticates by username or email and returns tokens
func (s *AuthService) Login(ctx context.Context, req LoginRequest, cartID *uuid.UUID) (*AuthResult, error) {
	identifier := strings.TrimSpace(req.Username)
	s.logger.Info("Login attempt", zap.String("username", identifier))

	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		s.logger.Warn("User not found during login", zap.String("username", identifier))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	if !user.CanLogin() {
		if user.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.String("username", identifier))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
		}
		s.logger.Warn("Login attempt for inactive account", zap.String("username", identifier))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	if !user.VerifyPassword(req.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("username", identifier),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("username", identifier),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	}

	user.RecordLoginSuccess(s.now())
	if err := s.userRepo.Update(ctx, user); err != nil {
		// Don't fail the login - just log the error
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in successfully",
		zap.String("username", user.Username),
		zap.String("user_id", user.ID.String()))

	return s.signIn(ctx, user, cartID)
}

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	if strings.Contains(identifier, "@") {
		user, err := s.userRepo.FindByEmail(ctx, identifier)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return user, err
		}
	}
	return s.userRepo.FindByUsername(ctx, identifier)
}

func (s *AuthService) signIn(ctx context.Context, user *identity.User, cartID *uuid.UUID) (*AuthResult, error) {
	tokenPair, err := s.jwtService.GenerateTokenPair(subjectOf(user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	result := newAuthResult(tokenPair, user)
	if cartID != nil && s.carts != nil {
		merged, err := s.carts.Merge(ctx, *cartID, user.ID)
		if err != nil {
			s.logger.Warn("Failed to merge anonymous cart",
				zap.String("cart_id", cartID.String()),
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		} else {
			result.CartID = &merged.ID
		}
	}
	return result, nil
}

// RefreshToken rotates a token pair. The presented refresh token is revoked.
func (s *AuthService) RefreshToken(ctx context.Context, req RefreshRequest) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID); err != nil {
		s.logger.Error("Failed to check token blacklist", zap.Error(err))
	} else if revoked {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	}
	if invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime()); err == nil && invalidated {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	}

	var user *identity.User
	tokenPair, err := s.jwtService.RefreshTokenPair(req.RefreshToken, func(userID uuid.UUID) (auth.Subject, error) {
		found, findErr := s.userRepo.FindByID(ctx, userID)
		if findErr != nil {
			return auth.Subject{}, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		if !found.CanLogin() {
			return auth.Subject{}, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
		}
		user = found
		return subjectOf(found), nil
	})
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
	}

	s.logger.Info("Token refreshed successfully", zap.String("user_id", user.ID.String()))
	return newAuthResult(tokenPair, user), nil
}

// Logout revokes the access token until it would have expired
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.String("user_id", input.UserID.String()))

	if input.TokenJTI == "" || input.Remaining <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.Remaining); err != nil {
		s.logger.Error("Failed to blacklist token on logout", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to log out")
	}
	return nil
}

// Me describes the caller. Anonymous callers get is_authenticated=false.
func (s *AuthService) Me(ctx context.Context, userID *uuid.UUID) (*MeResponse, error) {
	if userID == nil {
		return &MeResponse{IsAuthenticated: false}, nil
	}
	user, err := s.userRepo.FindByID(ctx, *userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &MeResponse{IsAuthenticated: false}, nil
		}
		return nil, err
	}
	resp := ToUserResponse(user)
	return &MeResponse{IsAuthenticated: true, User: &resp}, nil
}

func subjectOf(user *identity.User) auth.Subject {
	return auth.Subject{UserID: user.ID, Username: user.Username, IsStaff: user.IsStaff}
}

func newAuthResult(pair *auth.TokenPair, user *identity.User) *AuthResult {
	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserResponse(user),
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to refresh token")
	}
}

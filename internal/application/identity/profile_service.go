package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/identity"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stephanos-estetic/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// ProfileService serves the UserProfile page
type ProfileService struct {
	userRepo  identity.UserRepository
	blacklist auth.TokenBlacklist
	// revokeTTL is how long a bulk revocation must outlive issued tokens
	revokeTTL time.Duration
	logger    *zap.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo identity.UserRepository, blacklist auth.TokenBlacklist, revokeTTL time.Duration, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		userRepo:  userRepo,
		blacklist: blacklist,
		revokeTTL: revokeTTL,
		logger:    logger,
	}
}

// Get returns the caller's profile
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// Update applies a partial profile update. A changed email must not belong
// to another account.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil || req.LastName != nil || req.FullName != nil {
		first, last, full := user.FirstName, user.LastName, user.FullName
		if req.FirstName != nil {
			first = *req.FirstName
		}
		if req.LastName != nil {
			last = *req.LastName
		}
		if req.FullName != nil {
			full = *req.FullName
		} else if req.FirstName != nil || req.LastName != nil {
			// re-derive from the new parts
			full = ""
		}
		if err := user.SetNames(first, last, full); err != nil {
			return nil, err
		}
	}

	if req.Phone != nil {
		if err := user.SetPhone(*req.Phone); err != nil {
			return nil, err
		}
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			taken, err := s.userRepo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, shared.NewDomainError("ALREADY_EXISTS", "A user with that email already exists")
			}
			if err := user.SetEmail(email); err != nil {
				return nil, err
			}
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", zap.String("user_id", userID.String()))

	resp := ToUserResponse(user)
	return &resp, nil
}

// ChangePassword changes the password and revokes every token issued so far
func (s *ProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.ChangePassword(req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user after password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update password")
	}

	if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.revokeTTL); err != nil {
		s.logger.Warn("Failed to revoke tokens after password change", zap.Error(err))
	}

	s.logger.Info("User password changed", zap.String("user_id", userID.String()))
	return nil
}

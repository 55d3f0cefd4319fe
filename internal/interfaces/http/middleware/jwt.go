package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/infrastructure/auth"
	"github.com/stephanos-estetic/backend/internal/infrastructure/logger"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "user_id"
	JWTUsernameKey = "jwt_username"
	JWTIsStaffKey  = "jwt_is_staff"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

var errMissingToken = errors.New("missing bearer token")

// JWTMiddlewareConfig holds configuration for the JWT middlewares
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional; revoked tokens are rejected when set
	TokenBlacklist auth.TokenBlacklist
	Logger         *zap.Logger
}

// RequireAuth rejects requests without a valid access token
func RequireAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c.Request.Context(), cfg, c.GetHeader(AuthHeaderKey))
		if err != nil {
			handleAuthError(c, cfg, err)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller's claims when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c.Request.Context(), cfg, c.GetHeader(AuthHeaderKey))
		if err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// RequireStaff allows only staff accounts. It must run after RequireAuth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Staff access required")
			return
		}
		c.Next()
	}
}

func authenticate(ctx context.Context, cfg JWTMiddlewareConfig, header string) (*auth.Claims, error) {
	token, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok || token == "" {
		return nil, errMissingToken
	}

	claims, err := cfg.JWTService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	if cfg.TokenBlacklist == nil {
		return claims, nil
	}

	// Blacklist lookups fail open so a Redis outage does not log everyone out
	if claims.ID != "" {
		revoked, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
		switch {
		case err != nil:
			logWarn(cfg, "token blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		case revoked:
			return nil, auth.ErrTokenBlacklisted
		}
	}
	invalidated, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	switch {
	case err != nil:
		logWarn(cfg, "user token invalidation lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
	case invalidated:
		return nil, auth.ErrTokenBlacklisted
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTUsernameKey, claims.Username)
	c.Set(JWTIsStaffKey, claims.IsStaff)

	ctx := c.Request.Context()
	ctx = logger.WithUserID(ctx, claims.UserID)
	ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user_id", claims.UserID)))
	c.Request = c.Request.WithContext(ctx)
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error) {
	logWarn(cfg, "JWT authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))

	code, message := dto.ErrCodeTokenInvalid, "Invalid token"
	switch {
	case errors.Is(err, errMissingToken):
		code, message = dto.ErrCodeUnauthorized, "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	}
	abortWithError(c, http.StatusUnauthorized, code, message)
}

func logWarn(cfg JWTMiddlewareConfig, msg string, fields ...zap.Field) {
	if cfg.Logger != nil {
		cfg.Logger.Warn(msg, fields...)
	}
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetUserID returns the authenticated user's id, or nil for anonymous callers
func GetUserID(c *gin.Context) *uuid.UUID {
	id, err := uuid.Parse(c.GetString(JWTUserIDKey))
	if err != nil {
		return nil
	}
	return &id
}

// IsStaff reports whether the caller is a staff member
func IsStaff(c *gin.Context) bool {
	return c.GetBool(JWTIsStaffKey)
}

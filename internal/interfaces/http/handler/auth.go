package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/application/identity"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/middleware"
)

// RefreshCookieName holds the refresh token for browser clients
const RefreshCookieName = "refresh_token"

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService    *identity.AuthService
	cookieConfig   config.CookieConfig
	cartCookieName string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookieConfig config.CookieConfig, cartCookieName string) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		cookieConfig:   cookieConfig,
		cartCookieName: cartCookieName,
	}
}

// Register godoc
// @ID           register
// @Summary      Create an account
// @Description  Signs the new user in and merges the anonymous cart
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RegisterRequest true "Account"
// @Success      201 {object} APIResponse[identity.AuthResult]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req identity.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Register(c.Request.Context(), req, cartIDFromRequest(c, h.cartCookieName))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.signedIn(c, result)
	h.Created(c, result)
}

// Login godoc
// @ID           login
// @Summary      User login
// @Description  Authenticate with username or email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginRequest true "Login credentials"
// @Success      200 {object} APIResponse[identity.AuthResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Login(c.Request.Context(), req, cartIDFromRequest(c, h.cartCookieName))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.signedIn(c, result)
	h.Success(c, result)
}

// signedIn stores the refresh token cookie and drops the anonymous cart
// cookie once its contents belong to the user
func (h *AuthHandler) signedIn(c *gin.Context, result *identity.AuthResult) {
	setCookie(c, h.cookieConfig, RefreshCookieName, result.RefreshToken, time.Until(result.RefreshTokenExpiresAt))
	if result.CartID != nil {
		setCookie(c, h.cookieConfig, h.cartCookieName, "", 0)
	}
}

// RefreshToken godoc
// @ID           refreshToken
// @Summary      Refresh access token
// @Description  Rotates the token pair. The refresh token may come from the body or the refresh_token cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RefreshRequest false "Refresh token"
// @Success      200 {object} APIResponse[identity.AuthResult]
// @Failure      401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req identity.RefreshRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(RefreshCookieName)
	}
	if req.RefreshToken == "" {
		h.Unauthorized(c, "Refresh token is required")
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	setCookie(c, h.cookieConfig, RefreshCookieName, result.RefreshToken, time.Until(result.RefreshTokenExpiresAt))
	h.Success(c, result)
}

// Logout godoc
// @ID           logout
// @Summary      User logout
// @Description  Revokes the access token until it would have expired
// @Tags         auth
// @Produce      json
// @Success      200 {object} SuccessResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		h.Unauthorized(c, "Invalid token subject")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:    userID,
		TokenJTI:  claims.ID,
		Remaining: claims.GetRemainingTTL(),
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	setCookie(c, h.cookieConfig, RefreshCookieName, "", 0)
	h.Success(c, nil)
}

// Me godoc
// @ID           getMe
// @Summary      Describe the caller
// @Description  Anonymous callers get is_authenticated=false instead of 401
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identity.MeResponse]
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	me, err := h.authService.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, me)
}

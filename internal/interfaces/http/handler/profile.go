package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/application/identity"
)

// ProfileHandler serves the UserProfile page
type ProfileHandler struct {
	BaseHandler
	profileService *identity.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *identity.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get godoc
// @ID           getProfile
// @Summary      Get my profile
// @Tags         profile
// @Produce      json
// @Success      200 {object} APIResponse[identity.UserResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	user, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Update godoc
// @ID           updateProfile
// @Summary      Update my profile
// @Description  Partial update; a changed email must stay unique
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body identity.UpdateProfileRequest true "Changes"
// @Success      200 {object} APIResponse[identity.UserResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var req identity.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.profileService.Update(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangePassword godoc
// @ID           changePassword
// @Summary      Change my password
// @Description  Revokes every token issued before the change
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body identity.ChangePasswordRequest true "Passwords"
// @Success      200 {object} SuccessResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profile/password [put]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var req identity.ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.profileService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nil)
}

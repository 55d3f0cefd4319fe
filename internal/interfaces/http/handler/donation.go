package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/application/donation"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/dto"
)

// DonationHandler lists received donations
type DonationHandler struct {
	BaseHandler
	donationService *donation.DonationService
}

// NewDonationHandler creates a new DonationHandler
func NewDonationHandler(donationService *donation.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

// List godoc
// @ID           listDonations
// @Summary      List donations
// @Description  Newest first, with the running total
// @Tags         donations
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[donation.ListResult]
// @Router       /donations [get]
func (h *DonationHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.donationService.List(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

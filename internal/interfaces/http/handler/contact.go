package handler

import (
	"github.com/gin-gonic/gin"
	contactapp "github.com/stephanos-estetic/backend/internal/application/contact"
)

// ContactHandler serves the Contact page form
type ContactHandler struct {
	BaseHandler
	contactService *contactapp.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService *contactapp.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Submit godoc
// @ID           submitContactMessage
// @Summary      Send a contact message
// @Description  Posts that trip the honeypot or timing checks get the same 200 answer but are not stored
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        request body contactapp.SubmitRequest true "Message"
// @Success      200 {object} APIResponse[AcceptedData]
// @Failure      400 {object} ErrorResponse
// @Router       /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactapp.SubmitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	_, err := h.contactService.Submit(c.Request.Context(), req, contactapp.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, AcceptedData{Accepted: true})
}

// ListMessages godoc
// @ID           listContactMessages
// @Summary      List contact messages (staff)
// @Tags         contact
// @Produce      json
// @Param        handled query bool false "Filter by handled flag"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]contactapp.MessageResponse]
// @Security     BearerAuth
// @Router       /admin/contact-messages [get]
func (h *ContactHandler) ListMessages(c *gin.Context) {
	var filter contactapp.MessageFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	messages, total, err := h.contactService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pagination(filter.Page, filter.PageSize, 20)
	h.SuccessWithMeta(c, messages, total, page, pageSize)
}

// MarkHandled godoc
// @ID           markContactMessageHandled
// @Summary      Mark a contact message as handled (staff)
// @Tags         contact
// @Produce      json
// @Param        id path string true "Message ID" format(uuid)
// @Success      200 {object} APIResponse[contactapp.MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/contact-messages/{id}/handled [post]
func (h *ContactHandler) MarkHandled(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	msg, err := h.contactService.MarkHandled(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msg)
}

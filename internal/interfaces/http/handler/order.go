package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	cartapp "github.com/stephanos-estetic/backend/internal/application/cart"
	salesapp "github.com/stephanos-estetic/backend/internal/application/sales"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/dto"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/middleware"
)

// OrderHandler serves checkout and the Orders page
type OrderHandler struct {
	BaseHandler
	checkoutService *salesapp.CheckoutService
	orderService    *salesapp.OrderService
	cartCookieName  string
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkoutService *salesapp.CheckoutService, orderService *salesapp.OrderService, cartCookieName string) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
		cartCookieName:  cartCookieName,
	}
}

// Checkout godoc
// @ID           checkout
// @Summary      Place an order
// @Description  Orders the given items, or the caller's cart when items is empty, then opens the payment
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body salesapp.CheckoutRequest true "Checkout"
// @Success      201 {object} APIResponse[salesapp.CheckoutResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req salesapp.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ref := cartapp.Ref{UserID: middleware.GetUserID(c)}
	if ref.UserID == nil {
		ref.CartID = cartIDFromRequest(c, h.cartCookieName)
	}

	resp, err := h.checkoutService.Checkout(c.Request.Context(), ref, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMine godoc
// @ID           listMyOrders
// @Summary      List my orders
// @Description  Newest first
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]salesapp.OrderResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	req.Normalize()

	orders, total, err := h.orderService.ListMine(c.Request.Context(), userID, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, req.Page, req.PageSize)
}

// Get godoc
// @ID           getOrder
// @Summary      Get one of my orders
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[salesapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Get(c.Request.Context(), id, userID, middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Cancel a pending order
// @Description  Restocks the ordered products
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[salesapp.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.Cancel(c.Request.Context(), id, userID, middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Receipt godoc
// @ID           downloadOrderReceipt
// @Summary      Download an order receipt
// @Description  PDF when the renderer is enabled, HTML otherwise
// @Tags         orders
// @Produce      application/pdf
// @Produce      text/html
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/receipt [get]
func (h *OrderHandler) Receipt(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.orderService.Receipt(c.Request.Context(), id, userID, middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

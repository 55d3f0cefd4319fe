package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cartapp "github.com/stephanos-estetic/backend/internal/application/cart"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/middleware"
)

// CartHandler serves the server-side shopping cart. Anonymous carts are
// addressed by the X-Cart-ID header or the cart cookie; signed-in users
// always get their own cart.
type CartHandler struct {
	BaseHandler
	cartService  *cartapp.CartService
	cookieConfig config.CookieConfig
	cookieName   string
	cookieTTL    time.Duration
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.CartService, cookieConfig config.CookieConfig, cookieName string, cookieTTL time.Duration) *CartHandler {
	return &CartHandler{
		cartService:  cartService,
		cookieConfig: cookieConfig,
		cookieName:   cookieName,
		cookieTTL:    cookieTTL,
	}
}

// cartRef builds the caller's cart reference
func (h *CartHandler) cartRef(c *gin.Context) cartapp.Ref {
	ref := cartapp.Ref{UserID: middleware.GetUserID(c)}
	if ref.UserID != nil {
		return ref
	}
	ref.CartID = cartIDFromRequest(c, h.cookieName)
	return ref
}

func cartIDFromRequest(c *gin.Context, cookieName string) *uuid.UUID {
	raw := c.GetHeader(middleware.CartIDHeader)
	if raw == "" {
		raw, _ = c.Cookie(cookieName)
	}
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// respond echoes the cart id to anonymous callers so the browser can keep it
func (h *CartHandler) respond(c *gin.Context, ref cartapp.Ref, resp *cartapp.CartResponse, persisted bool) {
	if ref.UserID == nil && persisted {
		setCookie(c, h.cookieConfig, h.cookieName, resp.ID.String(), h.cookieTTL)
		c.Header(middleware.CartIDHeader, resp.ID.String())
	}
	h.Success(c, resp)
}

// Get godoc
// @ID           getCart
// @Summary      Get the cart
// @Description  Returns the caller's cart with subtotal, shipping and total
// @Tags         cart
// @Produce      json
// @Param        X-Cart-ID header string false "Anonymous cart id"
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	ref := h.cartRef(c)
	resp, err := h.cartService.Get(c.Request.Context(), ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, ref, resp, resp.ItemCount > 0)
}

// AddItem godoc
// @ID           addCartItem
// @Summary      Add a product to the cart
// @Description  Adds qty units (at least 1); an existing line grows
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Item"
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartapp.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ref := h.cartRef(c)
	resp, err := h.cartService.AddItem(c.Request.Context(), ref, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, ref, resp, true)
}

// UpdateItem godoc
// @ID           updateCartItem
// @Summary      Set a line's quantity
// @Description  Quantities below 1 are raised to 1
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body cartapp.UpdateItemRequest true "Quantity"
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /cart/items/{id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req cartapp.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ref := h.cartRef(c)
	resp, err := h.cartService.UpdateItem(c.Request.Context(), ref, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, ref, resp, true)
}

// RemoveItem godoc
// @ID           removeCartItem
// @Summary      Remove a line
// @Tags         cart
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	ref := h.cartRef(c)
	resp, err := h.cartService.RemoveItem(c.Request.Context(), ref, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, ref, resp, true)
}

// Clear godoc
// @ID           clearCart
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	ref := h.cartRef(c)
	resp, err := h.cartService.Clear(c.Request.Context(), ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, ref, resp, true)
}

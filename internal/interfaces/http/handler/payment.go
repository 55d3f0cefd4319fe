package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	paymentapp "github.com/stephanos-estetic/backend/internal/application/payment"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/middleware"
)

// PaymentHandler serves the third-party redirect payment flow
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateIntent godoc
// @ID           createPaymentIntent
// @Summary      Start a payment
// @Description  Creates an intent for an arbitrary CLP amount (donations, pay button) and returns the provider redirect
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body paymentapp.CreateIntentRequest true "Payment"
// @Success      201 {object} APIResponse[paymentapp.IntentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /payments/intents [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req paymentapp.CreateIntentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	intent, err := h.paymentService.CreateIntent(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, intent)
}

// PayOrder godoc
// @ID           payOrder
// @Summary      Retry the payment of a pending order
// @Tags         payments
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      201 {object} APIResponse[paymentapp.IntentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/pay [post]
func (h *PaymentHandler) PayOrder(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	intent, err := h.paymentService.PayOrder(c.Request.Context(), orderID, userID, middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, intent)
}

// PayBooking godoc
// @ID           payBooking
// @Summary      Pay a pending booking
// @Description  Opens a payment session for the booked service's price.
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      201 {object} APIResponse[paymentapp.IntentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id}/pay [post]
func (h *PaymentHandler) PayBooking(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	bookingID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	intent, err := h.paymentService.PayBooking(c.Request.Context(), bookingID, userID, middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, intent)
}

// Return godoc
// @ID           paymentReturn
// @Summary      Provider return endpoint
// @Description  Settles the intent. Browsers are redirected to the result page; JSON clients get the intent.
// @Tags         payments
// @Produce      json
// @Param        intent query string false "Intent id (fake provider)"
// @Param        paid query string false "Outcome flag (fake provider)"
// @Param        token_ws query string false "Webpay token"
// @Param        TBK_TOKEN query string false "Webpay token of an aborted payment"
// @Success      200 {object} APIResponse[paymentapp.ReturnResult]
// @Success      303
// @Failure      404 {object} ErrorResponse
// @Router       /payments/return [get]
// @Router       /payments/return [post]
func (h *PaymentHandler) Return(c *gin.Context) {
	var req paymentapp.ReturnRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		h.BadRequest(c, "Invalid return parameters")
		return
	}

	result, err := h.paymentService.HandleReturn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.ResultURL != "" && !wantsJSON(c) {
		c.Redirect(http.StatusSeeOther, result.ResultURL)
		return
	}
	h.Success(c, result)
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// Cancel godoc
// @ID           cancelPaymentIntent
// @Summary      Abandon a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Intent ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.IntentResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /payments/intents/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	intent, err := h.paymentService.Cancel(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, intent)
}

// Get godoc
// @ID           getPaymentIntent
// @Summary      Get a payment intent
// @Tags         payments
// @Produce      json
// @Param        id path string true "Intent ID" format(uuid)
// @Success      200 {object} APIResponse[paymentapp.IntentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /payments/intents/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	intent, err := h.paymentService.Get(c.Request.Context(), id, middleware.GetUserID(c), middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, intent)
}

package handler

import (
	"github.com/gin-gonic/gin"
	bookingapp "github.com/stephanos-estetic/backend/internal/application/booking"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/dto"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/middleware"
)

// BookingHandler serves the Services page, open schedules and bookings
type BookingHandler struct {
	BaseHandler
	bookingService *bookingapp.BookingService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *bookingapp.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// ListServices godoc
// @ID           listServices
// @Summary      List bookable services
// @Tags         services
// @Produce      json
// @Param        search query string false "Search by name"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50)
// @Success      200 {object} APIResponse[[]bookingapp.ServiceResponse]
// @Router       /services [get]
func (h *BookingHandler) ListServices(c *gin.Context) {
	h.listServices(c, true)
}

// AdminListServices godoc
// @ID           adminListServices
// @Summary      List all services (staff)
// @Tags         services
// @Produce      json
// @Success      200 {object} APIResponse[[]bookingapp.ServiceResponse]
// @Security     BearerAuth
// @Router       /admin/services [get]
func (h *BookingHandler) AdminListServices(c *gin.Context) {
	h.listServices(c, false)
}

func (h *BookingHandler) listServices(c *gin.Context, publicOnly bool) {
	var filter bookingapp.ServiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	services, total, err := h.bookingService.ListServices(c.Request.Context(), filter, publicOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pagination(filter.Page, filter.PageSize, 50)
	h.SuccessWithMeta(c, services, total, page, pageSize)
}

// GetService godoc
// @ID           getService
// @Summary      Get a service by slug
// @Tags         services
// @Produce      json
// @Param        slug path string true "Service slug"
// @Success      200 {object} APIResponse[bookingapp.ServiceResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /services/{slug} [get]
func (h *BookingHandler) GetService(c *gin.Context) {
	svc, err := h.bookingService.GetServiceBySlug(c.Request.Context(), c.Param("slug"), middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, svc)
}

// ListSlots godoc
// @ID           listServiceSlots
// @Summary      List open schedules of a service
// @Description  Active, future and unbooked slots in the requested window
// @Tags         services
// @Produce      json
// @Param        slug path string true "Service slug"
// @Param        from query string false "Window start (RFC 3339)"
// @Param        to query string false "Window end (RFC 3339)"
// @Success      200 {object} APIResponse[[]bookingapp.SlotResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /services/{slug}/slots [get]
func (h *BookingHandler) ListSlots(c *gin.Context) {
	var query bookingapp.SlotQuery
	if !h.bindQuery(c, &query) {
		return
	}
	slots, err := h.bookingService.ListOpenSlots(c.Request.Context(), c.Param("slug"), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, slots)
}

// CreateService godoc
// @ID           createService
// @Summary      Create a service (staff)
// @Description  The slug is derived from the name when empty
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        request body bookingapp.CreateServiceRequest true "Service"
// @Success      201 {object} APIResponse[bookingapp.ServiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/services [post]
func (h *BookingHandler) CreateService(c *gin.Context) {
	var req bookingapp.CreateServiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	svc, err := h.bookingService.CreateService(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, svc)
}

// UpdateService godoc
// @ID           updateService
// @Summary      Update a service (staff)
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Param        request body bookingapp.UpdateServiceRequest true "Changes"
// @Success      200 {object} APIResponse[bookingapp.ServiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/services/{id} [put]
func (h *BookingHandler) UpdateService(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req bookingapp.UpdateServiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	svc, err := h.bookingService.UpdateService(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, svc)
}

// CreateSlot godoc
// @ID           createSlot
// @Summary      Open an availability slot (staff)
// @Description  ends_at defaults to the service duration
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Param        request body bookingapp.CreateSlotRequest true "Slot"
// @Success      201 {object} APIResponse[bookingapp.SlotResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/services/{id}/slots [post]
func (h *BookingHandler) CreateSlot(c *gin.Context) {
	serviceID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req bookingapp.CreateSlotRequest
	if !h.bindJSON(c, &req) {
		return
	}
	slot, err := h.bookingService.CreateSlot(c.Request.Context(), serviceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, slot)
}

// DeactivateSlot godoc
// @ID           deactivateSlot
// @Summary      Close an availability slot (staff)
// @Tags         services
// @Produce      json
// @Param        id path string true "Slot ID" format(uuid)
// @Success      200 {object} APIResponse[bookingapp.SlotResponse]
// @Security     BearerAuth
// @Router       /admin/slots/{id}/deactivate [post]
func (h *BookingHandler) DeactivateSlot(c *gin.Context) {
	slotID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	slot, err := h.bookingService.DeactivateSlot(c.Request.Context(), slotID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, slot)
}

// CreateBooking godoc
// @ID           createBooking
// @Summary      Book a slot
// @Description  Guests may book; a signed-in customer is linked to the booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body bookingapp.CreateBookingRequest true "Booking"
// @Success      201 {object} APIResponse[bookingapp.BookingResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req bookingapp.CreateBookingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	b, err := h.bookingService.CreateBooking(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, b)
}

// ListMyBookings godoc
// @ID           listMyBookings
// @Summary      List my bookings
// @Tags         bookings
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]bookingapp.BookingResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings [get]
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	req.Normalize()
	bookings, total, err := h.bookingService.ListMyBookings(c.Request.Context(), userID, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, bookings, total, req.Page, req.PageSize)
}

// GetBooking godoc
// @ID           getBooking
// @Summary      Get one of my bookings
// @Tags         bookings
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Success      200 {object} APIResponse[bookingapp.BookingResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	b, err := h.bookingService.GetBooking(c.Request.Context(), id, userID, middleware.IsStaff(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, b)
}

// ChangeBookingStatus godoc
// @ID           changeBookingStatus
// @Summary      Change a booking's status (staff)
// @Description  pending→paid|cancelled, paid→fulfilled|no_show|cancelled
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        id path string true "Booking ID" format(uuid)
// @Param        request body bookingapp.ChangeStatusRequest true "Status"
// @Success      200 {object} APIResponse[bookingapp.BookingResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/bookings/{id}/status [put]
func (h *BookingHandler) ChangeBookingStatus(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req bookingapp.ChangeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	b, err := h.bookingService.ChangeStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, b)
}

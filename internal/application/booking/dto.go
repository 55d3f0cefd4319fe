package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/booking"
)

// CreateServiceRequest creates a bookable service
type CreateServiceRequest struct {
	Name            string          `json:"name" binding:"required,min=1,max=120"`
	Slug            string          `json:"slug" binding:"max=140"`
	Description     string          `json:"description" binding:"max=4000"`
	DurationMinutes int             `json:"duration_minutes" binding:"omitempty,min=5,max=600"`
	BufferBefore    int             `json:"buffer_before" binding:"min=0,max=240"`
	BufferAfter     int             `json:"buffer_after" binding:"min=0,max=240"`
	Price           decimal.Decimal `json:"price"`
	ImageURL        string          `json:"image_url" binding:"omitempty,max=500,url"`
}

// UpdateServiceRequest partially updates a service
type UpdateServiceRequest struct {
	Description     *string          `json:"description" binding:"omitempty,max=4000"`
	DurationMinutes *int             `json:"duration_minutes" binding:"omitempty,min=5,max=600"`
	BufferBefore    *int             `json:"buffer_before" binding:"omitempty,min=0,max=240"`
	BufferAfter     *int             `json:"buffer_after" binding:"omitempty,min=0,max=240"`
	Price           *decimal.Decimal `json:"price"`
	ImageURL        *string          `json:"image_url" binding:"omitempty,max=500"`
	Active          *bool            `json:"active"`
}

// ServiceListFilter filters the services list
type ServiceListFilter struct {
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ServiceResponse is a service in API responses
type ServiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes"`
	BufferBefore    int             `json:"buffer_before"`
	BufferAfter     int             `json:"buffer_after"`
	Price           decimal.Decimal `json:"price"`
	Active          bool            `json:"active"`
	ImageURL        string          `json:"image_url"`
}

// SlotQuery selects the window of open slots to list
type SlotQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// CreateSlotRequest opens a new slot; EndsAt defaults to the service duration
type CreateSlotRequest struct {
	StartsAt time.Time  `json:"starts_at" binding:"required"`
	EndsAt   *time.Time `json:"ends_at"`
}

// SlotResponse is an availability slot in API responses
type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	ServiceID uuid.UUID `json:"service_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	IsActive  bool      `json:"is_active"`
}

// CreateBookingRequest books a slot
type CreateBookingRequest struct {
	SlotID        uuid.UUID `json:"slot_id" binding:"required"`
	CustomerName  string    `json:"customer_name" binding:"required,max=120"`
	CustomerEmail string    `json:"customer_email" binding:"required,email,max=254"`
	CustomerPhone string    `json:"customer_phone" binding:"max=30"`
	Notes         string    `json:"notes" binding:"max=2000"`
}

// ChangeStatusRequest moves a booking through its lifecycle
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid cancelled fulfilled no_show"`
}

// BookingResponse is a booking with its slot and service
type BookingResponse struct {
	ID            uuid.UUID       `json:"id"`
	Status        string          `json:"status"`
	ServiceID     uuid.UUID       `json:"service_id"`
	ServiceName   string          `json:"service_name"`
	Price         decimal.Decimal `json:"price"`
	SlotID        uuid.UUID       `json:"slot_id"`
	StartsAt      time.Time       `json:"starts_at"`
	EndsAt        time.Time       `json:"ends_at"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToServiceResponse converts a domain Service
func ToServiceResponse(s *booking.Service) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Slug:            s.Slug,
		Description:     s.Description,
		DurationMinutes: s.DurationMinutes,
		BufferBefore:    s.BufferBefore,
		BufferAfter:     s.BufferAfter,
		Price:           s.Price,
		Active:          s.Active,
		ImageURL:        s.ImageURL,
	}
}

// ToSlotResponse converts a domain AvailabilitySlot
func ToSlotResponse(s *booking.AvailabilitySlot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		ServiceID: s.ServiceID,
		StartsAt:  s.StartsAt,
		EndsAt:    s.EndsAt,
		IsActive:  s.IsActive,
	}
}

// ToBookingResponse converts a booking with its slot and service
func ToBookingResponse(b *booking.Booking, slot *booking.AvailabilitySlot, svc *booking.Service) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID,
		Status:        string(b.Status),
		ServiceID:     b.ServiceID,
		SlotID:        b.SlotID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt,
	}
	if slot != nil {
		resp.StartsAt = slot.StartsAt
		resp.EndsAt = slot.EndsAt
	}
	if svc != nil {
		resp.ServiceName = svc.Name
		resp.Price = svc.Price
	}
	return resp
}

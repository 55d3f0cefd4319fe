// Package booking implements the services page and appointment bookings.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/booking"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultSlotWindow = 30 * 24 * time.Hour
	maxSlotWindow     = 90 * 24 * time.Hour
)

// Metrics records booking outcomes
type Metrics interface {
	RecordBooking(ctx context.Context, outcome string)
}

// BookingService handles services, availability and bookings
type BookingService struct {
	services       booking.ServiceRepository
	slots          booking.SlotRepository
	bookings       booking.BookingRepository
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(
	services booking.ServiceRepository,
	slots booking.SlotRepository,
	bookings booking.BookingRepository,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		services: services,
		slots:    slots,
		bookings: bookings,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BookingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the outcome recorder
func (s *BookingService) SetMetrics(m Metrics) {
	s.metrics = m
}

// ListServices lists services; the public list only shows active ones
func (s *BookingService) ListServices(ctx context.Context, filter ServiceListFilter, publicOnly bool) ([]ServiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   strings.TrimSpace(filter.Search),
		Filters:  make(map[string]interface{}),
	}
	if publicOnly {
		domainFilter.Filters["active"] = true
	}

	services, err := s.services.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.services.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ServiceResponse, len(services))
	for i := range services {
		out[i] = ToServiceResponse(&services[i])
	}
	return out, total, nil
}

// GetServiceBySlug returns a service; inactive ones only when includeInactive is set
func (s *BookingService) GetServiceBySlug(ctx context.Context, slug string, includeInactive bool) (*ServiceResponse, error) {
	svc, err := s.services.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !svc.Active && !includeInactive {
		return nil, shared.ErrNotFound
	}
	resp := ToServiceResponse(svc)
	return &resp, nil
}

// CreateService creates a service with a unique slug
func (s *BookingService) CreateService(ctx context.Context, req CreateServiceRequest) (*ServiceResponse, error) {
	svc, err := booking.NewService(req.Name, req.DurationMinutes, req.Price)
	if err != nil {
		return nil, err
	}
	if err := svc.Update(req.Description, req.ImageURL, req.Price, svc.DurationMinutes); err != nil {
		return nil, err
	}
	if err := svc.SetBuffers(req.BufferBefore, req.BufferAfter); err != nil {
		return nil, err
	}

	if explicit := booking.Slugify(req.Slug); explicit != "" {
		taken, err := s.services.ExistsBySlug(ctx, explicit)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Service with this slug already exists")
		}
		svc.Slug = explicit
	} else if err := svc.AssignSlug(func(candidate string) (bool, error) {
		return s.services.ExistsBySlug(ctx, candidate)
	}); err != nil {
		return nil, err
	}

	if err := s.services.Save(ctx, svc); err != nil {
		return nil, err
	}
	resp := ToServiceResponse(svc)
	return &resp, nil
}

// UpdateService partially updates a service
func (s *BookingService) UpdateService(ctx context.Context, id uuid.UUID, req UpdateServiceRequest) (*ServiceResponse, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	description, imageURL, price, duration := svc.Description, svc.ImageURL, svc.Price, svc.DurationMinutes
	if req.Description != nil {
		description = *req.Description
	}
	if req.ImageURL != nil {
		imageURL = *req.ImageURL
	}
	if req.Price != nil {
		price = *req.Price
	}
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	if err := svc.Update(description, imageURL, price, duration); err != nil {
		return nil, err
	}

	before, after := svc.BufferBefore, svc.BufferAfter
	if req.BufferBefore != nil {
		before = *req.BufferBefore
	}
	if req.BufferAfter != nil {
		after = *req.BufferAfter
	}
	if err := svc.SetBuffers(before, after); err != nil {
		return nil, err
	}
	if req.Active != nil {
		svc.SetActive(*req.Active)
	}

	if err := s.services.Save(ctx, svc); err != nil {
		return nil, err
	}
	resp := ToServiceResponse(svc)
	return &resp, nil
}

// ListOpenSlots lists active, future, unbooked slots of a service.
// The window defaults to the next 30 days and is capped at 90.
func (s *BookingService) ListOpenSlots(ctx context.Context, slug string, query SlotQuery) ([]SlotResponse, error) {
	svc, err := s.services.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, shared.ErrNotFound
	}

	now := s.now()
	from := now
	if query.From != nil && query.From.After(now) {
		from = *query.From
	}
	to := from.Add(defaultSlotWindow)
	if query.To != nil {
		to = *query.To
	}
	if !to.After(from) {
		return nil, shared.NewDomainError("INVALID_TIME_RANGE", "'to' must be after 'from'")
	}
	if to.Sub(from) > maxSlotWindow {
		to = from.Add(maxSlotWindow)
	}

	slots, err := s.slots.FindOpen(ctx, svc.ID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]SlotResponse, 0, len(slots))
	for i := range slots {
		if slots[i].Bookable(now) == nil {
			out = append(out, ToSlotResponse(&slots[i]))
		}
	}
	return out, nil
}

// CreateSlot opens a slot for a service. Slots of the same service may not
// overlap once the service buffers are taken into account.
func (s *BookingService) CreateSlot(ctx context.Context, serviceID uuid.UUID, req CreateSlotRequest) (*SlotResponse, error) {
	svc, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	var slot *booking.AvailabilitySlot
	if req.EndsAt != nil {
		slot, err = booking.NewAvailabilitySlot(svc.ID, req.StartsAt, *req.EndsAt)
	} else {
		slot, err = booking.NewSlotForService(svc, req.StartsAt)
	}
	if err != nil {
		return nil, err
	}
	if !slot.StartsAt.After(s.now()) {
		return nil, shared.NewDomainError("SLOT_IN_PAST", "Slots must start in the future")
	}

	from := slot.StartsAt.Add(-time.Duration(svc.BufferBefore) * time.Minute)
	to := slot.EndsAt.Add(time.Duration(svc.BufferAfter) * time.Minute)
	clashes, err := s.slots.FindOverlapping(ctx, svc.ID, from, to)
	if err != nil {
		return nil, err
	}
	if len(clashes) > 0 {
		return nil, shared.NewDomainError("SLOT_OVERLAP", "Slot overlaps an existing slot")
	}

	if err := s.slots.Save(ctx, slot); err != nil {
		return nil, err
	}
	resp := ToSlotResponse(slot)
	return &resp, nil
}

// DeactivateSlot withdraws a slot from the schedule
func (s *BookingService) DeactivateSlot(ctx context.Context, slotID uuid.UUID) (*SlotResponse, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	slot.Deactivate()
	if err := s.slots.Save(ctx, slot); err != nil {
		return nil, err
	}
	resp := ToSlotResponse(slot)
	return &resp, nil
}

// CreateBooking reserves a slot. A slot taken by a concurrent request is
// reported as ALREADY_EXISTS.
func (s *BookingService) CreateBooking(ctx context.Context, customerID *uuid.UUID, req CreateBookingRequest) (*BookingResponse, error) {
	resp, err := s.createBooking(ctx, customerID, req)
	s.record(ctx, err)
	return resp, err
}

func (s *BookingService) createBooking(ctx context.Context, customerID *uuid.UUID, req CreateBookingRequest) (*BookingResponse, error) {
	slot, err := s.slots.FindByID(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	svc, err := s.services.FindByID(ctx, slot.ServiceID)
	if err != nil {
		return nil, err
	}

	b, err := booking.NewBooking(slot, svc, booking.Customer{
		UserID: customerID,
		Name:   req.CustomerName,
		Email:  req.CustomerEmail,
		Phone:  req.CustomerPhone,
	}, req.Notes, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "This time slot has just been booked")
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID.String()),
		zap.String("service", svc.Slug),
		zap.Time("starts_at", slot.StartsAt),
	)
	s.publish(ctx, b)

	resp := ToBookingResponse(b, slot, svc)
	return &resp, nil
}

// ListMyBookings lists a customer's bookings, newest first
func (s *BookingService) ListMyBookings(ctx context.Context, customerID uuid.UUID, page, pageSize int) ([]BookingResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	bookings, err := s.bookings.FindByCustomer(ctx, customerID, shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.bookings.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, 0, err
	}

	out := make([]BookingResponse, len(bookings))
	for i := range bookings {
		out[i] = s.enrich(ctx, &bookings[i])
	}
	return out, total, nil
}

// GetBooking returns a booking to its owner or to staff
func (s *BookingService) GetBooking(ctx context.Context, id, userID uuid.UUID, isStaff bool) (*BookingResponse, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isStaff && !b.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	resp := s.enrich(ctx, b)
	return &resp, nil
}

// ChangeStatus moves a booking to another status (staff only)
func (s *BookingService) ChangeStatus(ctx context.Context, id uuid.UUID, req ChangeStatusRequest) (*BookingResponse, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.TransitionTo(booking.Status(req.Status)); err != nil {
		return nil, err
	}
	if err := s.bookings.Save(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, b)

	resp := s.enrich(ctx, b)
	return &resp, nil
}

// MarkPaid records payment of a booking
func (s *BookingService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == booking.StatusPaid {
		return nil
	}
	if err := b.MarkPaid(); err != nil {
		return err
	}
	if err := s.bookings.Save(ctx, b); err != nil {
		return err
	}
	s.logger.Info("booking marked paid", zap.String("booking_id", id.String()))
	s.publish(ctx, b)
	return nil
}

// enrich loads the slot and service for display. Lookup failures leave the
// fields empty.
func (s *BookingService) enrich(ctx context.Context, b *booking.Booking) BookingResponse {
	slot, err := s.slots.FindByID(ctx, b.SlotID)
	if err != nil {
		slot = nil
	}
	svc, err := s.services.FindByID(ctx, b.ServiceID)
	if err != nil {
		svc = nil
	}
	return ToBookingResponse(b, slot, svc)
}

func (s *BookingService) publish(ctx context.Context, b *booking.Booking) {
	events := b.GetDomainEvents()
	b.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish booking events",
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *BookingService) record(ctx context.Context, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "created"
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrAlreadyExists):
		outcome = "conflict"
	default:
		outcome = "rejected"
	}
	s.metrics.RecordBooking(ctx, outcome)
}

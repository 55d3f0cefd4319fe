package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/booking"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Service), args.Error(1)
}

func (m *MockServiceRepository) FindBySlug(ctx context.Context, slug string) (*booking.Service, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Service), args.Error(1)
}

func (m *MockServiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]booking.Service, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]booking.Service), args.Error(1)
}

func (m *MockServiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockServiceRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockServiceRepository) Save(ctx context.Context, svc *booking.Service) error {
	return m.Called(ctx, svc).Error(0)
}

type MockSlotRepository struct {
	mock.Mock
}

func (m *MockSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.AvailabilitySlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.AvailabilitySlot), args.Error(1)
}

func (m *MockSlotRepository) FindOpen(ctx context.Context, serviceID uuid.UUID, from, to time.Time) ([]booking.AvailabilitySlot, error) {
	args := m.Called(ctx, serviceID, from, to)
	return args.Get(0).([]booking.AvailabilitySlot), args.Error(1)
}

func (m *MockSlotRepository) FindOverlapping(ctx context.Context, serviceID uuid.UUID, from, to time.Time) ([]booking.AvailabilitySlot, error) {
	args := m.Called(ctx, serviceID, from, to)
	return args.Get(0).([]booking.AvailabilitySlot), args.Error(1)
}

func (m *MockSlotRepository) Save(ctx context.Context, slot *booking.AvailabilitySlot) error {
	return m.Called(ctx, slot).Error(0)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]booking.Booking, error) {
	args := m.Called(ctx, customerID, filter)
	return args.Get(0).([]booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	return m.Called(ctx, b).Error(0)
}

type MockCalendarNotifier struct {
	mock.Mock
}

func (m *MockCalendarNotifier) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockCalendarNotifier) InsertEvent(ctx context.Context, event CalendarEvent) error {
	return m.Called(ctx, event).Error(0)
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type recordingMetrics struct {
	outcomes []string
}

func (m *recordingMetrics) RecordBooking(_ context.Context, outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}

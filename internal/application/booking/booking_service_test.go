package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/booking"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type testDeps struct {
	services *MockServiceRepository
	slots    *MockSlotRepository
	bookings *MockBookingRepository
	pub      *recordingPublisher
	metrics  *recordingMetrics
	svc      *BookingService
}

func newTestService() *testDeps {
	d := &testDeps{
		services: new(MockServiceRepository),
		slots:    new(MockSlotRepository),
		bookings: new(MockBookingRepository),
		pub:      &recordingPublisher{},
		metrics:  &recordingMetrics{},
	}
	d.svc = NewBookingService(d.services, d.slots, d.bookings, zap.NewNop())
	d.svc.now = func() time.Time { return testNow }
	d.svc.SetEventPublisher(d.pub)
	d.svc.SetMetrics(d.metrics)
	return d
}

func newTestBookingService(t *testing.T) *booking.Service {
	t.Helper()
	svc, err := booking.NewService("Limpieza Facial", 60, decimal.NewFromInt(25000))
	require.NoError(t, err)
	svc.Slug = "limpieza-facial"
	return svc
}

func TestBookingService_CreateService(t *testing.T) {
	ctx := context.Background()

	t.Run("derives slug with suffix on collision", func(t *testing.T) {
		d := newTestService()
		d.services.On("ExistsBySlug", ctx, "masaje-relajante").Return(true, nil)
		d.services.On("ExistsBySlug", ctx, "masaje-relajante-1").Return(true, nil)
		d.services.On("ExistsBySlug", ctx, "masaje-relajante-2").Return(false, nil)
		d.services.On("Save", ctx, mock.AnythingOfType("*booking.Service")).Return(nil)

		resp, err := d.svc.CreateService(ctx, CreateServiceRequest{
			Name:  "Masaje Relajante",
			Price: decimal.NewFromInt(30000),
		})

		require.NoError(t, err)
		assert.Equal(t, "masaje-relajante-2", resp.Slug)
		assert.Equal(t, 60, resp.DurationMinutes, "duration defaults to 60")
		assert.True(t, resp.Active)
	})

	t.Run("explicit slug must be free", func(t *testing.T) {
		d := newTestService()
		d.services.On("ExistsBySlug", ctx, "facial").Return(true, nil)

		_, err := d.svc.CreateService(ctx, CreateServiceRequest{Name: "Facial", Slug: "Facial"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestBookingService_ListOpenSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to a thirty day window from now", func(t *testing.T) {
		d := newTestService()
		svc := newTestBookingService(t)
		slot, err := booking.NewSlotForService(svc, testNow.Add(24*time.Hour))
		require.NoError(t, err)

		d.services.On("FindBySlug", ctx, "limpieza-facial").Return(svc, nil)
		d.slots.On("FindOpen", ctx, svc.ID, testNow, testNow.Add(defaultSlotWindow)).
			Return([]booking.AvailabilitySlot{*slot}, nil)

		slots, err := d.svc.ListOpenSlots(ctx, "limpieza-facial", SlotQuery{})
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, slot.ID, slots[0].ID)
	})

	t.Run("past from is clamped and long windows capped", func(t *testing.T) {
		d := newTestService()
		svc := newTestBookingService(t)
		from := testNow.Add(-48 * time.Hour)
		to := testNow.Add(365 * 24 * time.Hour)

		d.services.On("FindBySlug", ctx, "limpieza-facial").Return(svc, nil)
		d.slots.On("FindOpen", ctx, svc.ID, testNow, testNow.Add(maxSlotWindow)).
			Return([]booking.AvailabilitySlot{}, nil)

		slots, err := d.svc.ListOpenSlots(ctx, "limpieza-facial", SlotQuery{From: &from, To: &to})
		require.NoError(t, err)
		assert.Empty(t, slots)
		d.slots.AssertExpectations(t)
	})

	t.Run("inactive service is not found", func(t *testing.T) {
		d := newTestService()
		svc := newTestBookingService(t)
		svc.SetActive(false)
		d.services.On("FindBySlug", ctx, "limpieza-facial").Return(svc, nil)

		_, err := d.svc.ListOpenSlots(ctx, "limpieza-facial", SlotQuery{})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBookingService_CreateSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("uses service duration and rejects overlaps", func(t *testing.T) {
		d := newTestService()
		svc := newTestBookingService(t)
		require.NoError(t, svc.SetBuffers(15, 15))
		start := testNow.Add(48 * time.Hour)

		d.services.On("FindByID", ctx, svc.ID).Return(svc, nil)
		d.slots.On("FindOverlapping", ctx, svc.ID, start.Add(-15*time.Minute), start.Add(75*time.Minute)).
			Return([]booking.AvailabilitySlot{}, nil).Once()
		d.slots.On("Save", ctx, mock.AnythingOfType("*booking.AvailabilitySlot")).Return(nil)

		resp, err := d.svc.CreateSlot(ctx, svc.ID, CreateSlotRequest{StartsAt: start})
		require.NoError(t, err)
		assert.Equal(t, start.Add(time.Hour), resp.EndsAt)

		existing, _ := booking.NewSlotForService(svc, start)
		d.slots.On("FindOverlapping", ctx, svc.ID, mock.Anything, mock.Anything).
			Return([]booking.AvailabilitySlot{*existing}, nil)
		_, err = d.svc.CreateSlot(ctx, svc.ID, CreateSlotRequest{StartsAt: start.Add(30 * time.Minute)})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "SLOT_OVERLAP", de.Code)
	})

	t.Run("rejects past and inverted slots", func(t *testing.T) {
		d := newTestService()
		svc := newTestBookingService(t)
		d.services.On("FindByID", ctx, svc.ID).Return(svc, nil)

		_, err := d.svc.CreateSlot(ctx, svc.ID, CreateSlotRequest{StartsAt: testNow.Add(-time.Hour)})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "SLOT_IN_PAST", de.Code)

		start := testNow.Add(time.Hour)
		end := start.Add(-time.Minute)
		_, err = d.svc.CreateSlot(ctx, svc.ID, CreateSlotRequest{StartsAt: start, EndsAt: &end})
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_TIME_RANGE", de.Code)
	})
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()

	setup := func(t *testing.T) (*testDeps, *booking.Service, *booking.AvailabilitySlot) {
		d := newTestService()
		svc := newTestBookingService(t)
		slot, err := booking.NewSlotForService(svc, testNow.Add(24*time.Hour))
		require.NoError(t, err)
		d.slots.On("FindByID", ctx, slot.ID).Return(slot, nil)
		d.services.On("FindByID", ctx, svc.ID).Return(svc, nil)
		return d, svc, slot
	}

	t.Run("books a free slot and publishes BookingCreated", func(t *testing.T) {
		d, svc, slot := setup(t)
		d.bookings.On("Create", ctx, mock.AnythingOfType("*booking.Booking")).Return(nil)

		resp, err := d.svc.CreateBooking(ctx, &user, CreateBookingRequest{
			SlotID:        slot.ID,
			CustomerName:  "Ana Pérez",
			CustomerEmail: "Ana@Example.com",
			Notes:         "primera vez",
		})

		require.NoError(t, err)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, svc.Name, resp.ServiceName)
		assert.Equal(t, "ana@example.com", resp.CustomerEmail)
		assert.Equal(t, slot.StartsAt, resp.StartsAt)
		require.Len(t, d.pub.events, 1)
		assert.Equal(t, booking.EventTypeBookingCreated, d.pub.events[0].EventType())
		assert.Equal(t, []string{"created"}, d.metrics.outcomes)
	})

	t.Run("double booking is ALREADY_EXISTS", func(t *testing.T) {
		d, _, slot := setup(t)
		d.bookings.On("Create", ctx, mock.Anything).Return(shared.ErrAlreadyExists)

		_, err := d.svc.CreateBooking(ctx, nil, CreateBookingRequest{
			SlotID: slot.ID, CustomerName: "Ana", CustomerEmail: "ana@example.com",
		})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		assert.Empty(t, d.pub.events)
		assert.Equal(t, []string{"conflict"}, d.metrics.outcomes)
	})

	t.Run("required fields are enforced", func(t *testing.T) {
		d, _, slot := setup(t)

		_, err := d.svc.CreateBooking(ctx, nil, CreateBookingRequest{SlotID: slot.ID, CustomerEmail: "ana@example.com"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_NAME", de.Code)

		_, err = d.svc.CreateBooking(ctx, nil, CreateBookingRequest{SlotID: slot.ID, CustomerName: "Ana"})
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_EMAIL", de.Code)
		assert.Equal(t, []string{"rejected", "rejected"}, d.metrics.outcomes)
	})

	t.Run("unknown slot", func(t *testing.T) {
		d := newTestService()
		missing := uuid.New()
		d.slots.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

		_, err := d.svc.CreateBooking(ctx, nil, CreateBookingRequest{SlotID: missing})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBookingService_GetAndChangeStatus(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	d := newTestService()
	svc := newTestBookingService(t)
	slot, _ := booking.NewSlotForService(svc, testNow.Add(time.Hour))
	b, err := booking.NewBooking(slot, svc, booking.Customer{UserID: &owner, Name: "Ana", Email: "ana@example.com"}, "", testNow)
	require.NoError(t, err)
	b.ClearDomainEvents()

	d.bookings.On("FindByID", ctx, b.ID).Return(b, nil)
	d.slots.On("FindByID", ctx, slot.ID).Return(slot, nil)
	d.services.On("FindByID", ctx, svc.ID).Return(svc, nil)
	d.bookings.On("Save", ctx, b).Return(nil)

	_, err = d.svc.GetBooking(ctx, b.ID, uuid.New(), false)
	assert.ErrorIs(t, err, shared.ErrNotFound, "other customers cannot see the booking")

	resp, err := d.svc.GetBooking(ctx, b.ID, owner, false)
	require.NoError(t, err)
	assert.Equal(t, svc.Name, resp.ServiceName)

	resp, err = d.svc.ChangeStatus(ctx, b.ID, ChangeStatusRequest{Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)

	_, err = d.svc.ChangeStatus(ctx, b.ID, ChangeStatusRequest{Status: "pending"})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestBookingService_ListMyBookings(t *testing.T) {
	ctx := context.Background()
	d := newTestService()
	owner := uuid.New()

	d.bookings.On("FindByCustomer", ctx, owner, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.OrderDir == "desc"
	})).Return([]booking.Booking{}, nil)
	d.bookings.On("CountByCustomer", ctx, owner).Return(int64(0), nil)

	items, total, err := d.svc.ListMyBookings(ctx, owner, 0, 500)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/booking"
	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createdEvent(t *testing.T) *booking.BookingCreatedEvent {
	t.Helper()
	svc := newTestBookingService(t)
	slot, err := booking.NewSlotForService(svc, testNow.Add(time.Hour))
	require.NoError(t, err)
	b, err := booking.NewBooking(slot, svc, booking.Customer{Name: "Ana Pérez", Email: "ana@example.com"}, "alergia a la lavanda", testNow)
	require.NoError(t, err)
	return b.GetDomainEvents()[0].(*booking.BookingCreatedEvent)
}

func TestNewCalendarEvent(t *testing.T) {
	e := createdEvent(t)
	entry := NewCalendarEvent(e)

	assert.Equal(t, "Limpieza Facial – Ana Pérez", entry.Summary)
	assert.Equal(t, "alergia a la lavanda\n\nEmail: ana@example.com", entry.Description)
	assert.Equal(t, e.StartsAt, entry.Start)
	assert.Equal(t, e.EndsAt, entry.End)
}

func TestCalendarHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled notifier is a no-op", func(t *testing.T) {
		n := new(MockCalendarNotifier)
		n.On("Enabled").Return(false)
		h := NewCalendarHandler(n, zap.NewNop())

		require.NoError(t, h.Handle(ctx, createdEvent(t)))
		n.AssertNotCalled(t, "InsertEvent", mock.Anything, mock.Anything)
	})

	t.Run("failures never fail the booking", func(t *testing.T) {
		n := new(MockCalendarNotifier)
		n.On("Enabled").Return(true)
		n.On("InsertEvent", ctx, mock.AnythingOfType("booking.CalendarEvent")).Return(errors.New("403"))
		h := NewCalendarHandler(n, zap.NewNop())

		assert.NoError(t, h.Handle(ctx, createdEvent(t)))
		n.AssertExpectations(t)
	})

	assert.Equal(t, []string{booking.EventTypeBookingCreated}, NewCalendarHandler(nil, zap.NewNop()).EventTypes())
}

func TestPaymentSucceededHandler(t *testing.T) {
	ctx := context.Background()
	d := newTestService()
	h := NewPaymentSucceededHandler(d.svc, zap.NewNop())

	svc := newTestBookingService(t)
	slot, _ := booking.NewSlotForService(svc, testNow.Add(time.Hour))
	b, err := booking.NewBooking(slot, svc, booking.Customer{Name: "Ana", Email: "ana@example.com"}, "", testNow)
	require.NoError(t, err)
	b.ClearDomainEvents()

	d.bookings.On("FindByID", ctx, b.ID).Return(b, nil)
	d.bookings.On("Save", ctx, b).Return(nil)

	intent, err := payment.NewIntent(25000, "Reserva", payment.RefTypeBooking, &b.ID, "fake")
	require.NoError(t, err)
	require.NoError(t, intent.MarkPaid(testNow))

	require.NoError(t, h.Handle(ctx, intent.GetDomainEvents()[0]))
	assert.Equal(t, booking.StatusPaid, b.Status)

	require.NoError(t, h.Handle(ctx, intent.GetDomainEvents()[0]), "a repeated event is a no-op")
	d.bookings.AssertNumberOfCalls(t, "Save", 1)

	orderRef := uuid.New()
	other, _ := payment.NewIntent(1000, "", payment.RefTypeOrder, &orderRef, "fake")
	require.NoError(t, other.MarkPaid(testNow))
	assert.NoError(t, h.Handle(ctx, other.GetDomainEvents()[0]), "non booking payments are ignored")
}

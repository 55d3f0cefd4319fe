package booking

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("Limpieza facial", 60, decimal.NewFromInt(24990))
	require.NoError(t, err)
	return svc
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Limpieza facial", "limpieza-facial"},
		{"Peeling Químico", "peeling-quimico"},
		{"  Masoterapia   descontracturante ", "masoterapia-descontracturante"},
		{"Depilación (láser) 2x1!", "depilacion-laser-2x1"},
		{"Ñandú", "nandu"},
		{"***", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestService_AssignSlug(t *testing.T) {
	t.Run("uses suffixes on collision", func(t *testing.T) {
		svc := newTestService(t)
		used := map[string]bool{"limpieza-facial": true, "limpieza-facial-1": true}

		require.NoError(t, svc.AssignSlug(func(c string) (bool, error) { return used[c], nil }))
		assert.Equal(t, "limpieza-facial-2", svc.Slug)
	})

	t.Run("keeps an existing slug", func(t *testing.T) {
		svc := newTestService(t)
		svc.Slug = "custom"
		require.NoError(t, svc.AssignSlug(func(string) (bool, error) { return true, nil }))
		assert.Equal(t, "custom", svc.Slug)
	})

	t.Run("propagates lookup errors", func(t *testing.T) {
		svc := newTestService(t)
		boom := errors.New("db down")
		assert.ErrorIs(t, svc.AssignSlug(func(string) (bool, error) { return false, boom }), boom)
	})
}

func TestNewService(t *testing.T) {
	svc, err := NewService("Dermaplaning", 0, decimal.NewFromInt(29990))
	require.NoError(t, err)
	assert.Equal(t, 60, svc.DurationMinutes, "default duration")
	assert.True(t, svc.Active)

	require.NoError(t, svc.SetBuffers(10, 15))
	assert.Equal(t, 85*time.Minute, svc.TotalBlock())
	assert.Error(t, svc.SetBuffers(-1, 0))

	_, err = NewService(" ", 45, decimal.Zero)
	assert.Error(t, err)
	_, err = NewService("X", 45, decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestNewAvailabilitySlot(t *testing.T) {
	start := time.Date(2030, 1, 10, 10, 0, 0, 0, time.UTC)

	_, err := NewAvailabilitySlot(uuid.New(), start, start)
	assert.Error(t, err)

	svc := newTestService(t)
	slot, err := NewSlotForService(svc, start)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), slot.EndsAt)

	other, _ := NewAvailabilitySlot(svc.ID, start.Add(30*time.Minute), start.Add(90*time.Minute))
	assert.True(t, slot.Overlaps(other))
	later, _ := NewAvailabilitySlot(svc.ID, start.Add(time.Hour), start.Add(2*time.Hour))
	assert.False(t, slot.Overlaps(later))
}

func TestNewBooking(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t)
	slot, err := NewSlotForService(svc, now.Add(24*time.Hour))
	require.NoError(t, err)

	customer := Customer{Name: "Ana Pérez", Email: "Ana@Example.com", Phone: "+56911111111"}

	t.Run("creates pending booking and event", func(t *testing.T) {
		b, err := NewBooking(slot, svc, customer, " alergia a aloe ", now)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, b.Status)
		assert.Equal(t, "ana@example.com", b.CustomerEmail)
		assert.Equal(t, "alergia a aloe", b.Notes)

		events := b.GetDomainEvents()
		require.Len(t, events, 1)
		created := events[0].(*BookingCreatedEvent)
		assert.Equal(t, "Limpieza facial", created.ServiceName)
		assert.Equal(t, slot.StartsAt, created.StartsAt)
	})

	t.Run("required fields", func(t *testing.T) {
		_, err := NewBooking(slot, svc, Customer{Email: "a@b.cl"}, "", now)
		assert.ErrorContains(t, err, "name is required")

		_, err = NewBooking(slot, svc, Customer{Name: "Ana"}, "", now)
		assert.ErrorContains(t, err, "email is required")

		_, err = NewBooking(slot, svc, Customer{Name: "Ana", Email: "not-an-email"}, "", now)
		assert.ErrorContains(t, err, "not valid")
	})

	t.Run("name length counts characters", func(t *testing.T) {
		accented := customer
		accented.Name = strings.Repeat("á", 120)
		_, err := NewBooking(slot, svc, accented, "", now)
		assert.NoError(t, err)
	})

	t.Run("slot in the past", func(t *testing.T) {
		_, err := NewBooking(slot, svc, customer, "", slot.StartsAt)
		assert.ErrorContains(t, err, "already started")
	})

	t.Run("inactive slot", func(t *testing.T) {
		inactive, _ := NewSlotForService(svc, now.Add(48*time.Hour))
		inactive.Deactivate()
		_, err := NewBooking(inactive, svc, customer, "", now)
		assert.ErrorContains(t, err, "no longer offered")
	})

	t.Run("slot of another service", func(t *testing.T) {
		foreign, _ := NewAvailabilitySlot(uuid.New(), now.Add(time.Hour), now.Add(2*time.Hour))
		_, err := NewBooking(foreign, svc, customer, "", now)
		assert.Error(t, err)
	})
}

func TestBooking_TransitionTo(t *testing.T) {
	now := time.Now()
	svc := newTestService(t)
	slot, _ := NewSlotForService(svc, now.Add(time.Hour))

	newBooking := func() *Booking {
		b, err := NewBooking(slot, svc, Customer{Name: "Ana", Email: "ana@example.com"}, "", now)
		require.NoError(t, err)
		b.ClearDomainEvents()
		return b
	}

	t.Run("pending to paid to fulfilled", func(t *testing.T) {
		b := newBooking()
		require.NoError(t, b.MarkPaid())
		require.NoError(t, b.TransitionTo(StatusFulfilled))
		assert.True(t, b.Status.IsFinal())
		assert.Len(t, b.GetDomainEvents(), 2)
	})

	t.Run("final states are closed", func(t *testing.T) {
		b := newBooking()
		require.NoError(t, b.Cancel())
		assert.Error(t, b.MarkPaid())
	})

	t.Run("pending cannot be fulfilled", func(t *testing.T) {
		b := newBooking()
		assert.Error(t, b.TransitionTo(StatusFulfilled))
		assert.Error(t, b.TransitionTo(StatusNoShow))
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		b := newBooking()
		require.NoError(t, b.TransitionTo(StatusPending))
		assert.Empty(t, b.GetDomainEvents())
	})

	t.Run("unknown status", func(t *testing.T) {
		b := newBooking()
		assert.Error(t, b.TransitionTo(Status("archived")))
	})
}

package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stephanos-estetic/backend/internal/domain/booking"
	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CalendarEvent is an entry in the business calendar
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// CalendarNotifier writes entries to the business calendar
type CalendarNotifier interface {
	Enabled() bool
	InsertEvent(ctx context.Context, event CalendarEvent) error
}

// CalendarHandler puts every new booking on the business calendar.
// Calendar failures are logged and never surface to the booking flow.
type CalendarHandler struct {
	notifier CalendarNotifier
	logger   *zap.Logger
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(notifier CalendarNotifier, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{notifier: notifier, logger: logger}
}

// EventTypes returns the handled event types
func (h *CalendarHandler) EventTypes() []string {
	return []string{booking.EventTypeBookingCreated}
}

// Handle inserts the calendar entry
func (h *CalendarHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	created, ok := event.(*booking.BookingCreatedEvent)
	if !ok {
		return nil
	}
	if !h.notifier.Enabled() {
		return nil
	}

	entry := NewCalendarEvent(created)
	if err := h.notifier.InsertEvent(ctx, entry); err != nil {
		h.logger.Warn("failed to add booking to calendar",
			zap.String("booking_id", created.BookingID.String()),
			zap.Error(err),
		)
		return nil
	}
	h.logger.Info("booking added to calendar", zap.String("booking_id", created.BookingID.String()))
	return nil
}

// NewCalendarEvent builds the calendar entry for a new booking
func NewCalendarEvent(e *booking.BookingCreatedEvent) CalendarEvent {
	var desc strings.Builder
	if e.Notes != "" {
		desc.WriteString(e.Notes)
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "Email: %s", e.CustomerEmail)

	return CalendarEvent{
		Summary:     e.ServiceName + " – " + e.CustomerName,
		Description: desc.String(),
		Start:       e.StartsAt,
		End:         e.EndsAt,
	}
}

// PaymentSucceededHandler marks bookings paid when their intent settles
type PaymentSucceededHandler struct {
	service *BookingService
	logger  *zap.Logger
}

// NewPaymentSucceededHandler creates a new PaymentSucceededHandler
func NewPaymentSucceededHandler(service *BookingService, logger *zap.Logger) *PaymentSucceededHandler {
	return &PaymentSucceededHandler{service: service, logger: logger}
}

// EventTypes returns the handled event types
func (h *PaymentSucceededHandler) EventTypes() []string {
	return []string{payment.EventTypePaymentSucceeded}
}

// Handle marks the referenced booking paid
func (h *PaymentSucceededHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*payment.PaymentSucceededEvent)
	if !ok || paid.RefType != payment.RefTypeBooking || paid.RefID == nil {
		return nil
	}
	if err := h.service.MarkPaid(ctx, *paid.RefID); err != nil {
		return fmt.Errorf("mark booking %s paid: %w", paid.RefID, err)
	}
	h.logger.Info("booking paid",
		zap.String("booking_id", paid.RefID.String()),
		zap.String("intent_id", paid.IntentID.String()),
	)
	return nil
}

package persistence

import (
	"github.com/stephanos-estetic/backend/internal/domain/booking"
	"github.com/stephanos-estetic/backend/internal/domain/catalog"
	"github.com/stephanos-estetic/backend/internal/domain/contact"
	"github.com/stephanos-estetic/backend/internal/domain/donation"
	"github.com/stephanos-estetic/backend/internal/domain/identity"
	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"github.com/stephanos-estetic/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// AutoMigrate creates the schema from the GORM models. PostgreSQL databases
// are managed by the SQL migrations; this is for SQLite test databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&catalog.Product{},
		&booking.Service{},
		&booking.AvailabilitySlot{},
		&booking.Booking{},
		&sales.Order{},
		&sales.OrderItem{},
		&payment.Intent{},
		&identity.User{},
		&contact.Message{},
		&donation.Donation{},
		&cartModel{},
		&cartItemModel{},
	)
}

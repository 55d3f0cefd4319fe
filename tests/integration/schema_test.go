package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrations_UpDownUp(t *testing.T) {
	tdb := NewTestDB(t)

	expected := []string{
		"availability_slots", "bookings", "cart_items", "carts", "contact_messages",
		"donations", "order_items", "orders", "payment_intents", "products", "services", "users",
	}
	assert.Equal(t, expected, tdb.Tables())

	runner := tdb.Migrate()
	runner.Down()
	assert.Empty(t, tdb.Tables())

	runner.Up()
	assert.Equal(t, expected, tdb.Tables())
}

package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := map[string]string{
		"asc":    "ASC",
		" ASC ":  "ASC",
		"desc":   "DESC",
		"":       "DESC",
		"random": "DESC",
	}
	for in, want := range tests {
		assert.Equal(t, want, ValidateSortOrder(in), in)
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "price", ValidateSortField("price", ProductSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", ProductSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("name; DROP TABLE products", ProductSortFields, "created_at"))
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "name ASC", orderClause("name", "asc", ServiceSortFields, "created_at"))
	assert.Equal(t, "created_at DESC", orderClause("password_hash", "up", ServiceSortFields, "created_at"))
}

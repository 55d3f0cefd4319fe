package payment

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntent(t *testing.T) {
	ref := uuid.New()

	t.Run("valid", func(t *testing.T) {
		i, err := NewIntent(28980, "Pedido #1", RefTypeOrder, &ref, "fake")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, i.Status)
		assert.Equal(t, CurrencyCLP, i.Currency)
		assert.NotNil(t, i.Metadata)
	})

	t.Run("amount must be positive", func(t *testing.T) {
		_, err := NewIntent(0, "", RefTypeDonation, nil, "fake")
		assert.Error(t, err)
	})

	t.Run("description limit counts runes", func(t *testing.T) {
		_, err := NewIntent(100, strings.Repeat("ñ", 140), "", nil, "fake")
		assert.NoError(t, err)
		_, err = NewIntent(100, strings.Repeat("a", 141), "", nil, "fake")
		assert.Error(t, err)
	})

	t.Run("unknown ref type", func(t *testing.T) {
		_, err := NewIntent(100, "", RefType("Invoice"), nil, "fake")
		assert.Error(t, err)
	})

	t.Run("provider required", func(t *testing.T) {
		_, err := NewIntent(100, "", "", nil, "")
		assert.Error(t, err)
	})
}

func TestIntent_Lifecycle(t *testing.T) {
	newIntent := func() *Intent {
		i, err := NewIntent(5000, "Donacion", RefTypeDonation, nil, "fake")
		require.NoError(t, err)
		return i
	}

	t.Run("session then paid", func(t *testing.T) {
		i := newIntent()
		require.NoError(t, i.AttachSession("tok", "https://pay/tok"))
		assert.Equal(t, StatusRequiresAction, i.Status)
		assert.Error(t, i.AttachSession("tok2", "x"))

		now := time.Now()
		require.NoError(t, i.MarkPaid(now))
		require.NoError(t, i.MarkPaid(now), "repeated confirmation")
		assert.Len(t, i.GetDomainEvents(), 1)
		assert.Error(t, i.MarkFailed("late"))

		require.NoError(t, i.MarkRefunded())
		assert.Equal(t, StatusRefunded, i.Status)
	})

	t.Run("failed is final", func(t *testing.T) {
		i := newIntent()
		long := strings.Repeat("x", 400)
		require.NoError(t, i.MarkFailed(long))
		assert.Len(t, i.FailureReason, 255)
		require.NoError(t, i.MarkFailed("again"))
		assert.Error(t, i.MarkPaid(time.Now()))
		assert.Error(t, i.MarkRefunded())
	})

	t.Run("failure reason is cut on character boundaries", func(t *testing.T) {
		i := newIntent()
		require.NoError(t, i.MarkFailed("gateway error:"+strings.Repeat("ó", 300)))
		assert.True(t, utf8.ValidString(i.FailureReason))
		assert.Equal(t, 255, utf8.RuneCountInString(i.FailureReason))
	})
}

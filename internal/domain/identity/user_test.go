package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := NewUser(" ana ", " Ana@Example.COM ", "secreto123")
		require.NoError(t, err)

		assert.Equal(t, "ana", user.Username)
		assert.Equal(t, "ana@example.com", user.Email)
		assert.NotEqual(t, "secreto123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("secreto123"))
		assert.False(t, user.VerifyPassword("otra"))
		assert.True(t, user.IsActive)
		assert.False(t, user.IsStaff)
		require.Len(t, user.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeUserRegistered, user.GetDomainEvents()[0].EventType())
	})

	tests := []struct {
		name     string
		username string
		email    string
		password string
		errMsg   string
	}{
		{"empty username", "", "a@b.cl", "secreto123", "Username cannot be empty"},
		{"short username", "ab", "a@b.cl", "secreto123", "at least 3"},
		{"username with spaces", "ana maria", "a@b.cl", "secreto123", "can only contain"},
		{"empty email", "ana", "", "secreto123", "Email cannot be empty"},
		{"bad email", "ana", "ana@", "secreto123", "Invalid email"},
		{"empty password", "ana", "a@b.cl", "", "Password cannot be empty"},
		{"short password", "ana", "a@b.cl", "abc1", "at least 8"},
		{"letters only", "ana", "a@b.cl", "abcdefghij", "one letter and one number"},
		{"too long", "ana", "a@b.cl", strings.Repeat("a1", 40), "exceed 72"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.username, tt.email, tt.password)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestUser_Profile(t *testing.T) {
	user, err := NewUser("ana", "ana@example.com", "secreto123")
	require.NoError(t, err)

	require.NoError(t, user.SetNames("Ana", "Pérez", ""))
	assert.Equal(t, "Ana Pérez", user.FullName)
	assert.Equal(t, "Ana Pérez", user.DisplayName())

	require.NoError(t, user.SetNames("Ana", "Pérez", "Anita"))
	assert.Equal(t, "Anita", user.FullName)

	require.NoError(t, user.SetPhone(" +56 9 1234 5678 "))
	assert.Equal(t, "+56 9 1234 5678", user.Phone)
	assert.Error(t, user.SetPhone(strings.Repeat("9", 31)))

	assert.Error(t, user.SetEmail("nope"))
	require.NoError(t, user.SetEmail("ANA2@example.com"))
	assert.Equal(t, "ana2@example.com", user.Email)
}

func TestUser_ChangePassword(t *testing.T) {
	user, err := NewUser("ana", "ana@example.com", "secreto123")
	require.NoError(t, err)

	assert.Error(t, user.ChangePassword("wrong", "nuevo12345"))
	assert.Error(t, user.ChangePassword("secreto123", "short"))
	require.NoError(t, user.ChangePassword("secreto123", "nuevo12345"))
	assert.True(t, user.VerifyPassword("nuevo12345"))
}

func TestUser_LoginAttempts(t *testing.T) {
	user, err := NewUser("ana", "ana@example.com", "secreto123")
	require.NoError(t, err)

	assert.False(t, user.RecordLoginFailure(3, time.Minute))
	assert.False(t, user.RecordLoginFailure(3, time.Minute))
	assert.True(t, user.RecordLoginFailure(3, time.Minute))
	assert.True(t, user.IsLocked())
	assert.False(t, user.CanLogin())

	user.RecordLoginSuccess(time.Now())
	assert.False(t, user.IsLocked())
	assert.Equal(t, 0, user.FailedAttempts)
	assert.True(t, user.CanLogin())

	user.IsActive = false
	assert.False(t, user.CanLogin())
}

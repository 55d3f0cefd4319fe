package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.@+]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetter     = regexp.MustCompile(`[a-zA-Z]`)
	hasNumber     = regexp.MustCompile(`[0-9]`)
)

// User is a shop customer account (or a staff account when IsStaff is set)
// It is the aggregate root for user-related operations
type User struct {
	shared.BaseAggregateRoot
	Username       string `gorm:"type:varchar(150);not null;uniqueIndex"`
	Email          string `gorm:"type:varchar(254);not null;uniqueIndex"`
	PasswordHash   string `gorm:"type:varchar(100);not null"`
	FirstName      string `gorm:"type:varchar(150)"`
	LastName       string `gorm:"type:varchar(150)"`
	FullName       string `gorm:"type:varchar(150)"`
	Phone          string `gorm:"type:varchar(30)"`
	IsStaff        bool   `gorm:"not null;default:false"`
	IsActive       bool   `gorm:"not null;default:true"`
	LastLoginAt    *time.Time
	FailedAttempts int `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates an active customer account
func NewUser(username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		Email:             email,
		PasswordHash:      string(hash),
		IsActive:          true,
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// SetNames updates first, last and full name. An empty full name is derived
// from the other two.
func (u *User) SetNames(first, last, full string) error {
	first, last, full = strings.TrimSpace(first), strings.TrimSpace(last), strings.TrimSpace(full)
	if utf8.RuneCountInString(first) > 150 || utf8.RuneCountInString(last) > 150 || utf8.RuneCountInString(full) > 150 {
		return shared.NewDomainError("INVALID_NAME", "Names cannot exceed 150 characters")
	}
	if full == "" {
		full = strings.TrimSpace(first + " " + last)
	}
	u.FirstName = first
	u.LastName = last
	u.FullName = full
	u.touch()
	return nil
}

// SetEmail changes the email address
func (u *User) SetEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return err
	}
	u.Email = email
	u.touch()
	return nil
}

// SetPhone changes the contact phone
func (u *User) SetPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if utf8.RuneCountInString(phone) > 30 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}
	u.Phone = phone
	u.touch()
	return nil
}

// ChangePassword replaces the password after checking the current one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.touch()
	return nil
}

// VerifyPassword checks a plain text password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLoginSuccess resets the failure counter
func (u *User) RecordLoginSuccess(at time.Time) {
	u.LastLoginAt = &at
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.touch()
}

// RecordLoginFailure counts a failed attempt and locks the account once
// maxAttempts is reached. Returns true if the account got locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.touch()
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		u.LockedUntil = &until
		return true
	}
	return false
}

// IsLocked reports whether a lock is in effect
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// CanLogin reports whether the account may authenticate
func (u *User) CanLogin() bool {
	return u.IsActive && !u.IsLocked()
}

// DisplayName returns the full name if set, otherwise the username
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) touch() {
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

func validateUsername(username string) error {
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if utf8.RuneCountInString(username) > 150 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers and @/./+/-/_")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetter.MatchString(password) || !hasNumber.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 254 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

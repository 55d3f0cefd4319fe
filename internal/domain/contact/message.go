// Package contact handles messages sent through the public contact form.
package contact

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/stephanos-estetic/backend/internal/domain/shared"
)

// Spam heuristics for the public form
const (
	// MinFillTime is how long a human needs at least to fill the form
	MinFillTime = 3 * time.Second
	// MaxFormAge rejects forms rendered too long ago (replayed posts)
	MaxFormAge = time.Hour
)

// Submission is the raw form post
type Submission struct {
	Name    string
	Email   string
	Phone   string
	Message string
	// Website is a honeypot input hidden from humans
	Website string
	// SentAt is when the form was rendered on the client
	SentAt    time.Time
	IP        string
	UserAgent string
}

// Message is a stored contact request
type Message struct {
	shared.BaseEntity
	Name      string `gorm:"type:varchar(120);not null"`
	Email     string `gorm:"type:varchar(254);not null"`
	Phone     string `gorm:"type:varchar(30)"`
	Body      string `gorm:"column:message;type:text;not null"`
	IP        string `gorm:"column:ip;type:varchar(45)"`
	UserAgent string `gorm:"type:varchar(255)"`
	Handled   bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Message) TableName() string {
	return "contact_messages"
}

// FieldError names the form field that failed validation
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every failing field of a submission
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid contact form"
	}
	return e.Fields[0].Field + ": " + e.Fields[0].Message
}

// Validate checks required fields and formats. Every failing field is
// reported, not just the first.
func (s Submission) Validate() error {
	var fields []FieldError
	if strings.TrimSpace(s.Name) == "" {
		fields = append(fields, FieldError{"name", "Name is required"})
	} else if utf8.RuneCountInString(strings.TrimSpace(s.Name)) > 120 {
		fields = append(fields, FieldError{"name", "Name cannot exceed 120 characters"})
	}
	email := strings.TrimSpace(s.Email)
	if email == "" {
		fields = append(fields, FieldError{"email", "Email is required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, FieldError{"email", "Email is not valid"})
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Phone)) > 30 {
		fields = append(fields, FieldError{"phone", "Phone cannot exceed 30 characters"})
	}
	msg := strings.TrimSpace(s.Message)
	if msg == "" {
		fields = append(fields, FieldError{"message", "Message is required"})
	} else if utf8.RuneCountInString(msg) > 5000 {
		fields = append(fields, FieldError{"message", "Message cannot exceed 5000 characters"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// LooksAutomated reports whether the submission trips the honeypot or the
// timing checks. Such posts are acknowledged but not stored.
func (s Submission) LooksAutomated(now time.Time) bool {
	if strings.TrimSpace(s.Website) != "" {
		return true
	}
	if s.SentAt.IsZero() {
		return false
	}
	elapsed := now.Sub(s.SentAt)
	return elapsed < MinFillTime || elapsed > MaxFormAge
}

// secondsCutoff separates the two encodings of sent_at: 1e11 seconds is
// past the year 5000 while 1e11 milliseconds is in 1973.
const secondsCutoff = 100_000_000_000

// SentAtFromUnix converts the form's sent_at value. The storefront sends
// unix seconds; values too large to be seconds are read as milliseconds.
// Zero or negative values mean the client did not send a timestamp.
func SentAtFromUnix(v int64) time.Time {
	switch {
	case v <= 0:
		return time.Time{}
	case v < secondsCutoff:
		return time.Unix(v, 0)
	default:
		return time.UnixMilli(v)
	}
}

// NewMessage builds a stored message from a valid submission
func NewMessage(s Submission) (*Message, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Message{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(s.Name),
		Email:      strings.ToLower(strings.TrimSpace(s.Email)),
		Phone:      strings.TrimSpace(s.Phone),
		Body:       strings.TrimSpace(s.Message),
		IP:         shared.TruncateText(s.IP, 45),
		UserAgent:  shared.TruncateText(s.UserAgent, 255),
	}, nil
}

// MarkHandled flags the message as answered
func (m *Message) MarkHandled() {
	m.Handled = true
	m.UpdatedAt = time.Now()
}

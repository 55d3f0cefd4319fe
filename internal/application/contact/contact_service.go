// Package contact accepts contact form posts and lists them for staff.
package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stephanos-estetic/backend/internal/domain/contact"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SubmitRequest is the public contact form. Validation happens in the
// domain so every failing field is reported at once.
type SubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Website string `json:"website"`
	// SentAt is the client render time in unix seconds (milliseconds are
	// also recognised)
	SentAt int64 `json:"sent_at"`
}

// ClientInfo is request metadata stored with a message
type ClientInfo struct {
	IP        string
	UserAgent string
}

// MessageFilter narrows the staff listing
type MessageFilter struct {
	Handled  *bool `form:"handled"`
	Page     int   `form:"page" binding:"omitempty,min=1"`
	PageSize int   `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MessageResponse is a stored message in API responses
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Handled   bool      `json:"handled"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactService handles the contact form
type ContactService struct {
	repo   contact.MessageRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewContactService creates a new ContactService
func NewContactService(repo contact.MessageRepository, logger *zap.Logger) *ContactService {
	return &ContactService{repo: repo, logger: logger, now: time.Now}
}

// Submit stores a message. Posts that look automated are accepted without
// being stored so bots get no signal; the returned bool reports whether the
// message was kept.
func (s *ContactService) Submit(ctx context.Context, req SubmitRequest, client ClientInfo) (bool, error) {
	sub := contact.Submission{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
		Website:   req.Website,
		IP:        client.IP,
		UserAgent: client.UserAgent,
		SentAt:    contact.SentAtFromUnix(req.SentAt),
	}

	if sub.LooksAutomated(s.now()) {
		s.logger.Info("contact form post dropped",
			zap.String("ip", client.IP),
			zap.Bool("honeypot", req.Website != ""),
		)
		return false, nil
	}

	msg, err := contact.NewMessage(sub)
	if err != nil {
		return false, err
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return false, err
	}
	s.logger.Info("contact message stored", zap.String("message_id", msg.ID.String()))
	return true, nil
}

// List returns stored messages newest first
func (s *ContactService) List(ctx context.Context, f MessageFilter) ([]MessageResponse, int64, error) {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.Handled != nil {
		filter.Filters["handled"] = *f.Handled
	}

	messages, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]MessageResponse, len(messages))
	for i := range messages {
		out[i] = toMessageResponse(&messages[i])
	}
	return out, total, nil
}

// MarkHandled flags a message as answered
func (s *ContactService) MarkHandled(ctx context.Context, id uuid.UUID) (*MessageResponse, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	msg.MarkHandled()
	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}
	resp := toMessageResponse(msg)
	return &resp, nil
}

func toMessageResponse(m *contact.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Message:   m.Body,
		IP:        m.IP,
		UserAgent: m.UserAgent,
		Handled:   m.Handled,
		CreatedAt: m.CreatedAt,
	}
}

package booking

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"golang.org/x/text/unicode/norm"
)

// Service is a bookable treatment (facial, massage, ...)
type Service struct {
	shared.BaseAggregateRoot
	Name            string          `gorm:"type:varchar(120);not null"`
	Slug            string          `gorm:"type:varchar(140);not null;uniqueIndex"`
	Description     string          `gorm:"type:text"`
	DurationMinutes int             `gorm:"not null;default:60"`
	BufferBefore    int             `gorm:"not null;default:0"`
	BufferAfter     int             `gorm:"not null;default:0"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Active          bool            `gorm:"not null;default:true"`
	ImageURL        string          `gorm:"column:image_url;type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Service) TableName() string {
	return "services"
}

// NewService creates an active service. The slug is left empty; callers
// assign a unique one with AssignSlug before saving.
func NewService(name string, durationMinutes int, price decimal.Decimal) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Service name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 120 {
		return nil, shared.NewDomainError("INVALID_NAME", "Service name cannot exceed 120 characters")
	}
	if durationMinutes == 0 {
		durationMinutes = 60
	}
	if durationMinutes < 0 {
		return nil, shared.NewDomainError("INVALID_DURATION", "Duration must be positive")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &Service{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		DurationMinutes:   durationMinutes,
		Price:             price,
		Active:            true,
	}, nil
}

// SetBuffers sets the idle minutes reserved around each appointment
func (s *Service) SetBuffers(before, after int) error {
	if before < 0 || after < 0 {
		return shared.NewDomainError("INVALID_BUFFER", "Buffers cannot be negative")
	}
	s.BufferBefore = before
	s.BufferAfter = after
	s.touch()
	return nil
}

// Update changes the descriptive fields
func (s *Service) Update(description, imageURL string, price decimal.Decimal, durationMinutes int) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if durationMinutes <= 0 {
		return shared.NewDomainError("INVALID_DURATION", "Duration must be positive")
	}
	s.Description = description
	s.ImageURL = imageURL
	s.Price = price
	s.DurationMinutes = durationMinutes
	s.touch()
	return nil
}

// SetActive toggles visibility on the services page
func (s *Service) SetActive(active bool) {
	s.Active = active
	s.touch()
}

// AssignSlug picks the first free candidate among base, base-1, base-2, ...
// taken reports whether a candidate is already in use.
func (s *Service) AssignSlug(taken func(candidate string) (bool, error)) error {
	if s.Slug != "" {
		return nil
	}
	base := Slugify(s.Name)
	if base == "" {
		base = "servicio"
	}
	candidate := base
	for i := 1; ; i++ {
		used, err := taken(candidate)
		if err != nil {
			return err
		}
		if !used {
			break
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
	s.Slug = candidate
	return nil
}

// TotalBlock is the time the service occupies including buffers
func (s *Service) TotalBlock() time.Duration {
	return time.Duration(s.BufferBefore+s.DurationMinutes+s.BufferAfter) * time.Minute
}

func (s *Service) touch() {
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Slugify lowercases, strips accents and joins words with hyphens
// ("Peeling Químico" -> "peeling-quimico").
func Slugify(name string) string {
	decomposed := norm.NFKD.String(name)
	var b strings.Builder
	dash := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		case r == '_' || r == '-' || unicode.IsSpace(r):
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

package shared

// AggregateRoot is an entity that owns a consistency boundary. It carries a
// version for optimistic locking and buffers the events raised by its
// methods until the application service publishes them.
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot is embedded by products, orders, bookings, users and
// payment intents
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`

	pending []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot starts a fresh aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion is called by every state change that must be persisted
// with SaveWithLock
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the events raised since the last clear
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.pending }

func (a *BaseAggregateRoot) ClearDomainEvents() { a.pending = nil }

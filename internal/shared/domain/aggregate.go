package domain

// AggregateRoot is a domain entity that is the root of an aggregate.
type AggregateRoot interface {
	Entity
	DomainEvents() []DomainEvent
	ClearDomainEvents()
	AddDomainEvent(event DomainEvent)
	Version() int
}

// BaseAggregateRoot provides common aggregate functionality.
//
// Version is bumped on every state change (see Bump) and persisted with the
// aggregate, so readers can key derived data on (id, version).
type BaseAggregateRoot struct {
	BaseEntity
	domainEvents []DomainEvent
	version      int
}

// NewBaseAggregateRoot creates a new aggregate root around the given entity.
func NewBaseAggregateRoot(entity BaseEntity) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   entity,
		domainEvents: make([]DomainEvent, 0),
		version:      1,
	}
}

// RehydrateBaseAggregateRoot recreates an aggregate from persisted state.
func RehydrateBaseAggregateRoot(entity BaseEntity, version int) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   entity,
		domainEvents: make([]DomainEvent, 0),
		version:      version,
	}
}

// DomainEvents returns all uncommitted domain events.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents removes all uncommitted domain events.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = make([]DomainEvent, 0)
}

// AddDomainEvent adds a domain event to the aggregate.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// Version returns the aggregate version.
func (a *BaseAggregateRoot) Version() int {
	return a.version
}

// Bump records a state change: it increments the version and touches updatedAt.
func (a *BaseAggregateRoot) Bump() {
	a.version++
	a.Touch()
}

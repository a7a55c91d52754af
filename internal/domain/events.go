package domain

import (
	"context"

	"lotledger/internal/core/id"
)

// Event is a domain event raised by a document operation.
type Event struct {
	AggregateType string // e.g. "Order", "ExitSlip"
	AggregateID   id.ID
	EventType     string // e.g. "order.received", "exit_slip.validated"
	Payload       any
}

// EventPublisher records events for delivery to downstream consumers.
// The postgres implementation writes to a transactional outbox, so an
// event is only ever visible if the transaction that raised it
// committed.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

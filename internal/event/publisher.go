package event

import (
	"github.com/nikhilm/hourglass-goal-service/internal/model"
	"github.com/nikhilm/hourglass-goal-service/internal/repository"
)

// Publisher hands a lifecycle event to the outbound channel. Delivery is
// best-effort; no acknowledgment is surfaced to the caller.
type Publisher interface {
	Publish(event model.Event) error
}

// OutboxPublisher persists the event intent; the dispatcher owns the
// actual delivery and its retries.
type OutboxPublisher struct {
	outbox repository.OutboxRepository
}

func NewOutboxPublisher(outbox repository.OutboxRepository) *OutboxPublisher {
	return &OutboxPublisher{outbox: outbox}
}

func (p *OutboxPublisher) Publish(event model.Event) error {
	return p.outbox.Insert(event)
}

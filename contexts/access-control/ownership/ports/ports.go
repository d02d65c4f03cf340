package ports

import (
	"context"
	"time"

	"compose/contexts/access-control/ownership/domain/entities"
	"compose/internal/shared/events"
)

// Namespace is the module's storage partition namespace. Must stay unique
// across every module composed into one runtime instance.
const Namespace = "compose.ownership"

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for event and outbox identifiers.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// InitializeInput seeds the partition for the two-step strategy.
type InitializeInput struct {
	Owner         string
	InitializedAt time.Time
}

// StartTransferInput records the pending owner together with its
// transfer-started notification.
type StartTransferInput struct {
	// ExpectedOwner re-verifies the owner guard inside the atomic write so
	// the serialized-call model survives concurrent entry points.
	ExpectedOwner string
	PendingOwner  string
	Notification  events.Envelope
	OccurredAt    time.Time
}

// CompleteTransferInput promotes the pending owner.
type CompleteTransferInput struct {
	ExpectedPendingOwner string
	Notification         events.Envelope
	OccurredAt           time.Time
}

// SetOwnerInput reassigns the owner outright. Used by the single-step
// strategy and by renounce; clears any pending owner.
type SetOwnerInput struct {
	ExpectedOwner string
	NewOwner      string
	Notification  events.Envelope
	OccurredAt    time.Time
}

// Repository is the write/read boundary for the ownership partition.
// Every mutation persists its state change and outbox row atomically and
// re-checks its guard expectations in the same atomic section.
type Repository interface {
	GetOwnership(ctx context.Context) (entities.Ownership, error)
	Initialize(ctx context.Context, input InitializeInput) error
	StartTransfer(ctx context.Context, input StartTransferInput) error
	CompleteTransfer(ctx context.Context, input CompleteTransferInput) error
	SetOwner(ctx context.Context, input SetOwnerInput) error
}

// OutboxMessage represents a committed, not-yet-published notification.
type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxRepository supports worker relay polling and acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// NotificationPublisher emits committed notifications to the event bus.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, event events.Envelope) error
}

// Capability is the strategy-independent ownership surface a composite
// system wires against. Both the single-step and the two-step strategies
// satisfy it.
type Capability interface {
	Owner(ctx context.Context) (string, error)
	TransferOwnership(ctx context.Context, caller string, newOwner string) error
}

package ports

import (
	"context"
	"time"

	"compose/internal/shared/events"
)

// Namespace is the module's storage partition namespace. Must stay unique
// across every module composed into one runtime instance.
const Namespace = "compose.access_control"

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for event and outbox identifiers.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// SetMembershipInput flips one (account, role) membership bit. The
// notification is committed to the outbox only when the bit actually
// changed, so re-grants and re-revokes stay observationally silent.
type SetMembershipInput struct {
	Role         string
	Account      string
	Member       bool
	Notification events.Envelope
	OccurredAt   time.Time
}

// SetRoleAdminInput updates the one-hop admin pointer for a role.
type SetRoleAdminInput struct {
	Role         string
	AdminRole    string
	Notification events.Envelope
	OccurredAt   time.Time
}

// Repository is the write/read boundary for the access-control partition.
// Mutations persist state change and outbox row atomically.
type Repository interface {
	HasRole(ctx context.Context, role string, account string) (bool, error)
	// GetRoleAdmin resolves exactly one hop and falls back to
	// DefaultAdminRole for unconfigured roles. It never walks a chain.
	GetRoleAdmin(ctx context.Context, role string) (string, error)
	SetMembership(ctx context.Context, input SetMembershipInput) (changed bool, err error)
	SetRoleAdmin(ctx context.Context, input SetRoleAdminInput) error
}

// IdempotencyRecord stores request hash and previous response payload.
type IdempotencyRecord struct {
	Key             string
	Operation       string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

// IdempotencyStore guarantees replay/conflict behavior for mutating
// entry points.
type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
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

package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"compose/contexts/access-control/ownership/domain/entities"
	domainerrors "compose/contexts/access-control/ownership/domain/errors"
	"compose/contexts/access-control/ownership/ports"
	"compose/internal/shared/events"
	"compose/internal/shared/outbox"
	"compose/internal/shared/storage"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the module's repository,
// outbox, clock, and ID generation ports. Intended for tests and local
// development wiring. State lives in the compose.ownership partition
// claimed from the shared space, so a colliding module fails at wiring.
type Store struct {
	mu     sync.RWMutex
	handle storage.Handle
	region *region
}

type region struct {
	state  entities.Ownership
	outbox []outboxRow
}

type outboxRow struct {
	ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

// NewStore claims the ownership partition from space.
func NewStore(space *storage.Space) (*Store, error) {
	handle, raw, err := space.Claim(ports.Namespace, func() any {
		return &region{}
	})
	if err != nil {
		return nil, err
	}
	return &Store{
		handle: handle,
		region: raw.(*region),
	}, nil
}

// Seed marks the partition initialized with the given owner. Used to wire
// the single-step strategy, which has no initialize handshake.
func (s *Store) Seed(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.region.state = entities.Ownership{
		Initialized: true,
		Owner:       owner,
	}
}

func (s *Store) GetOwnership(_ context.Context) (entities.Ownership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.region.state, nil
}

func (s *Store) Initialize(_ context.Context, input ports.InitializeInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.region.state.Initialized {
		return domainerrors.ErrAlreadyInitialized
	}
	s.region.state = entities.Ownership{
		Initialized:  true,
		Owner:        input.Owner,
		PendingOwner: entities.Nobody,
	}
	return nil
}

func (s *Store) StartTransfer(_ context.Context, input ports.StartTransferInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwner(input.ExpectedOwner); err != nil {
		return err
	}
	s.region.state.PendingOwner = input.PendingOwner
	return s.appendOutbox(input.Notification, input.OccurredAt)
}

func (s *Store) CompleteTransfer(_ context.Context, input ports.CompleteTransferInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.region.state.PendingOwner
	if pending == entities.Nobody || pending != input.ExpectedPendingOwner {
		return domainerrors.UnauthorizedAccountError{Account: input.ExpectedPendingOwner}
	}
	s.region.state.Owner = pending
	s.region.state.PendingOwner = entities.Nobody
	return s.appendOutbox(input.Notification, input.OccurredAt)
}

func (s *Store) SetOwner(_ context.Context, input ports.SetOwnerInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOwner(input.ExpectedOwner); err != nil {
		return err
	}
	s.region.state.Owner = input.NewOwner
	s.region.state.PendingOwner = entities.Nobody
	return s.appendOutbox(input.Notification, input.OccurredAt)
}

// checkOwner re-verifies the guard inside the write lock so the serialized
// call model survives concurrent entry points.
func (s *Store) checkOwner(expected string) error {
	owner := s.region.state.Owner
	if owner == entities.Nobody {
		return domainerrors.ErrAlreadyRenounced
	}
	if owner != expected {
		return domainerrors.UnauthorizedAccountError{Account: expected}
	}
	return nil
}

func (s *Store) appendOutbox(notification events.Envelope, occurredAt time.Time) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	s.region.outbox = append(s.region.outbox, outboxRow{
		OutboxMessage: ports.OutboxMessage{
			OutboxID:  notification.EventID,
			EventType: notification.EventType,
			Payload:   payload,
			CreatedAt: occurredAt,
		},
		Status: outbox.StatusPending,
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.region.outbox {
		if row.Status != outbox.StatusPending {
			continue
		}
		messages = append(messages, row.OutboxMessage)
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.region.outbox {
		if s.region.outbox[i].OutboxID == outboxID {
			s.region.outbox[i].Status = outbox.StatusPublished
			published := publishedAt
			s.region.outbox[i].PublishedAt = &published
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

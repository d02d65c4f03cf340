package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"compose/contexts/access-control/rbac/domain/entities"
	"compose/contexts/access-control/rbac/ports"
	"compose/internal/shared/events"
	"compose/internal/shared/outbox"
	"compose/internal/shared/storage"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the module's repository,
// idempotency, outbox, clock, and ID generation ports. State lives in the
// compose.access_control partition claimed from the shared space.
type Store struct {
	mu     sync.RWMutex
	handle storage.Handle
	region *region
}

type region struct {
	members     map[string]map[string]bool // role -> account -> member
	adminRoles  map[string]string          // role -> admin role, one hop
	idempotency map[string]ports.IdempotencyRecord
	outbox      []outboxRow
}

type outboxRow struct {
	ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

// NewStore claims the access-control partition from space.
func NewStore(space *storage.Space) (*Store, error) {
	handle, raw, err := space.Claim(ports.Namespace, func() any {
		return &region{
			members:     make(map[string]map[string]bool),
			adminRoles:  make(map[string]string),
			idempotency: make(map[string]ports.IdempotencyRecord),
		}
	})
	if err != nil {
		return nil, err
	}
	return &Store{
		handle: handle,
		region: raw.(*region),
	}, nil
}

// Seed grants DefaultAdminRole to account without emitting a notification.
// Used at bootstrap to hand the hierarchy root to the deployer principal.
func (s *Store) Seed(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMember(entities.DefaultAdminRole, account, true)
}

func (s *Store) HasRole(_ context.Context, role string, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.region.members[role][account], nil
}

func (s *Store) GetRoleAdmin(_ context.Context, role string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if admin, ok := s.region.adminRoles[role]; ok {
		return admin, nil
	}
	return entities.DefaultAdminRole, nil
}

func (s *Store) SetMembership(_ context.Context, input ports.SetMembershipInput) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.region.members[input.Role][input.Account] == input.Member {
		return false, nil
	}
	s.setMember(input.Role, input.Account, input.Member)
	if err := s.appendOutbox(input.Notification, input.OccurredAt); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) SetRoleAdmin(_ context.Context, input ports.SetRoleAdminInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.region.adminRoles[input.Role] = input.AdminRole
	return s.appendOutbox(input.Notification, input.OccurredAt)
}

func (s *Store) setMember(role string, account string, member bool) {
	accounts := s.region.members[role]
	if accounts == nil {
		accounts = make(map[string]bool)
		s.region.members[role] = accounts
	}
	if member {
		accounts[account] = true
	} else {
		delete(accounts, account)
	}
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.region.idempotency[key]
	if !ok || now.After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.region.idempotency[record.Key] = record
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

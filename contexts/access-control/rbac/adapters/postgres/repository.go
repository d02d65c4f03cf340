package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"compose/contexts/access-control/rbac/domain/entities"
	"compose/contexts/access-control/rbac/ports"
	"compose/internal/shared/events"
	"compose/internal/shared/outbox"
	"compose/internal/shared/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type membershipModel struct {
	Partition string    `gorm:"column:partition;primaryKey;size:66"`
	Role      string    `gorm:"column:role;primaryKey;size:66"`
	Account   string    `gorm:"column:account;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (membershipModel) TableName() string { return "access_control_memberships" }

type roleAdminModel struct {
	Partition string    `gorm:"column:partition;primaryKey;size:66"`
	Role      string    `gorm:"column:role;primaryKey;size:66"`
	AdminRole string    `gorm:"column:admin_role;size:66"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (roleAdminModel) TableName() string { return "access_control_role_admins" }

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	Operation       string    `gorm:"column:operation"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at;index"`
}

func (idempotencyModel) TableName() string { return "access_control_idempotency" }

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	Partition   string     `gorm:"column:partition;size:66;index"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status;index"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "access_control_outbox" }

// Repository persists the access-control partition in PostgreSQL. Rows are
// keyed by the partition handle; membership mutations and their outbox rows
// commit in one transaction.
type Repository struct {
	db        *gorm.DB
	partition string
	logger    *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:        db,
		partition: storage.Resolve(ports.Namespace).String(),
		logger:    logger,
	}
}

// Migrate creates the module's tables. Called from bootstrap.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&membershipModel{}, &roleAdminModel{}, &idempotencyModel{}, &outboxModel{})
}

// Seed grants DefaultAdminRole to account without emitting a notification.
func (r *Repository) Seed(ctx context.Context, account string, now time.Time) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&membershipModel{
			Partition: r.partition,
			Role:      entities.DefaultAdminRole,
			Account:   account,
			CreatedAt: now,
		}).Error
}

func (r *Repository) HasRole(ctx context.Context, role string, account string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&membershipModel{}).
		Where("partition = ? AND role = ? AND account = ?", r.partition, role, account).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) GetRoleAdmin(ctx context.Context, role string) (string, error) {
	var row roleAdminModel
	err := r.db.WithContext(ctx).
		Where("partition = ? AND role = ?", r.partition, role).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.DefaultAdminRole, nil
		}
		return "", err
	}
	return row.AdminRole, nil
}

func (r *Repository) SetMembership(ctx context.Context, input ports.SetMembershipInput) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.Member {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&membershipModel{
				Partition: r.partition,
				Role:      input.Role,
				Account:   input.Account,
				CreatedAt: input.OccurredAt,
			})
			if res.Error != nil {
				return res.Error
			}
			changed = res.RowsAffected > 0
		} else {
			res := tx.
				Where("partition = ? AND role = ? AND account = ?", r.partition, input.Role, input.Account).
				Delete(&membershipModel{})
			if res.Error != nil {
				return res.Error
			}
			changed = res.RowsAffected > 0
		}
		if !changed {
			return nil
		}
		return r.createOutboxRow(tx, input.Notification, input.OccurredAt)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (r *Repository) SetRoleAdmin(ctx context.Context, input ports.SetRoleAdminInput) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "partition"}, {Name: "role"}},
			DoUpdates: clause.AssignmentColumns([]string{"admin_role", "updated_at"}),
		}).Create(&roleAdminModel{
			Partition: r.partition,
			Role:      input.Role,
			AdminRole: input.AdminRole,
			UpdatedAt: input.OccurredAt,
		}).Error
		if err != nil {
			return err
		}
		return r.createOutboxRow(tx, input.Notification, input.OccurredAt)
	})
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, now).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		Operation:       row.Operation,
		RequestHash:     row.RequestHash,
		ResponsePayload: row.ResponsePayload,
		ExpiresAt:       row.ExpiresAt,
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"operation", "request_hash", "response_payload", "expires_at"}),
	}).Create(&idempotencyModel{
		Key:             record.Key,
		Operation:       record.Operation,
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt,
	}).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("partition = ? AND status = ?", r.partition, outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
		})
	}
	return messages, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ? AND partition = ?", outboxID, r.partition).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt,
		}).
		Error
}

func (r *Repository) createOutboxRow(tx *gorm.DB, notification events.Envelope, occurredAt time.Time) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return tx.Create(&outboxModel{
		OutboxID:  notification.EventID,
		Partition: r.partition,
		EventType: notification.EventType,
		Payload:   payload,
		Status:    outbox.StatusPending,
		CreatedAt: occurredAt,
	}).Error
}

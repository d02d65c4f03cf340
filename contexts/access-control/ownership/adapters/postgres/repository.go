package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"compose/contexts/access-control/ownership/domain/entities"
	domainerrors "compose/contexts/access-control/ownership/domain/errors"
	"compose/contexts/access-control/ownership/ports"
	"compose/internal/shared/events"
	"compose/internal/shared/outbox"
	"compose/internal/shared/storage"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uniqueViolationCode = "23505"

type ownershipModel struct {
	Partition    string    `gorm:"column:partition;primaryKey;size:66"`
	Initialized  bool      `gorm:"column:initialized"`
	Owner        string    `gorm:"column:owner"`
	PendingOwner string    `gorm:"column:pending_owner"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (ownershipModel) TableName() string { return "ownership_state" }

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	Partition   string     `gorm:"column:partition;size:66;index"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status;index"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "ownership_outbox" }

// Repository persists the ownership partition in PostgreSQL. Rows are keyed
// by the partition handle so independent modules sharing the database never
// collide. Every mutation re-checks its guard under a row lock and writes
// the outbox row in the same transaction.
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
	return r.db.AutoMigrate(&ownershipModel{}, &outboxModel{})
}

func (r *Repository) GetOwnership(ctx context.Context) (entities.Ownership, error) {
	var row ownershipModel
	err := r.db.WithContext(ctx).
		Where("partition = ?", r.partition).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ownership{}, nil
		}
		return entities.Ownership{}, err
	}
	return entities.Ownership{
		Initialized:  row.Initialized,
		Owner:        row.Owner,
		PendingOwner: row.PendingOwner,
	}, nil
}

func (r *Repository) Initialize(ctx context.Context, input ports.InitializeInput) error {
	err := r.db.WithContext(ctx).Create(&ownershipModel{
		Partition:   r.partition,
		Initialized: true,
		Owner:       input.Owner,
		UpdatedAt:   input.InitializedAt,
	}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyInitialized
		}
		return err
	}
	return nil
}

// Seed marks the partition initialized with the given owner if it has not
// been initialized yet. Used to wire the single-step strategy.
func (r *Repository) Seed(ctx context.Context, owner string, now time.Time) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partition"}},
		DoNothing: true,
	}).Create(&ownershipModel{
		Partition:   r.partition,
		Initialized: true,
		Owner:       owner,
		UpdatedAt:   now,
	}).Error
	return err
}

func (r *Repository) StartTransfer(ctx context.Context, input ports.StartTransferInput) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.lockRow(tx)
		if err != nil {
			return err
		}
		if err := checkOwner(row, input.ExpectedOwner); err != nil {
			return err
		}
		row.PendingOwner = input.PendingOwner
		row.UpdatedAt = input.OccurredAt
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		return r.createOutboxRow(tx, input.Notification, input.OccurredAt)
	})
}

func (r *Repository) CompleteTransfer(ctx context.Context, input ports.CompleteTransferInput) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.lockRow(tx)
		if err != nil {
			return err
		}
		if row.PendingOwner == entities.Nobody || row.PendingOwner != input.ExpectedPendingOwner {
			return domainerrors.UnauthorizedAccountError{Account: input.ExpectedPendingOwner}
		}
		row.Owner = row.PendingOwner
		row.PendingOwner = entities.Nobody
		row.UpdatedAt = input.OccurredAt
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		return r.createOutboxRow(tx, input.Notification, input.OccurredAt)
	})
}

func (r *Repository) SetOwner(ctx context.Context, input ports.SetOwnerInput) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.lockRow(tx)
		if err != nil {
			return err
		}
		if err := checkOwner(row, input.ExpectedOwner); err != nil {
			return err
		}
		row.Owner = input.NewOwner
		row.PendingOwner = entities.Nobody
		row.UpdatedAt = input.OccurredAt
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		return r.createOutboxRow(tx, input.Notification, input.OccurredAt)
	})
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

func (r *Repository) lockRow(tx *gorm.DB) (*ownershipModel, error) {
	var row ownershipModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("partition = ?", r.partition).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrAlreadyRenounced
		}
		return nil, err
	}
	return &row, nil
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

func checkOwner(row *ownershipModel, expected string) error {
	if row.Owner == entities.Nobody {
		return domainerrors.ErrAlreadyRenounced
	}
	if row.Owner != expected {
		return domainerrors.UnauthorizedAccountError{Account: expected}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

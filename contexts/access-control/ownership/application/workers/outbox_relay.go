package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "compose/contexts/access-control/ownership/application"
	"compose/contexts/access-control/ownership/ports"
	"compose/internal/shared/events"
)

// OutboxRelay publishes committed ownership notifications. Publication
// happens strictly after the state change was persisted, which is what
// keeps external observers behind the commit.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.NotificationPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("ownership outbox list failed",
			"event", "ownership_outbox_list_failed",
			"module", "access-control/ownership",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event events.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			return err
		}
		if err := r.Publisher.PublishNotification(ctx, event); err != nil {
			logger.Error("ownership outbox publish failed",
				"event", "ownership_outbox_publish_failed",
				"module", "access-control/ownership",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return err
		}
	}
	return nil
}

// Run polls until the context is cancelled.
func (r OutboxRelay) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.RunOnce(ctx)
		}
	}
}

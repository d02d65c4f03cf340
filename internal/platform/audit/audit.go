package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"compose/internal/platform/messaging"
	"compose/internal/shared/events"
)

// Trail is an append-only local record of every authorization-relevant
// notification. It lives in a sqlite file next to the process so operators
// can answer "who changed what, when" without the broker's retention.
type Trail struct {
	db     *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	event_id    TEXT PRIMARY KEY,
	event_type  TEXT NOT NULL,
	partition   TEXT NOT NULL,
	occurred_at TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	payload     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_partition ON audit_log (partition, occurred_at);
`

func Open(path string, logger *slog.Logger) (*Trail, error) {
	if path == "" {
		return nil, errors.New("audit db path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate audit schema: %w", err)
	}
	return &Trail{db: db, logger: logger}, nil
}

// Record appends one notification. Replayed event ids are ignored so the
// trail stays consistent when the relay redelivers.
func (t *Trail) Record(ctx context.Context, event events.Envelope) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO audit_log (event_id, event_type, partition, occurred_at, recorded_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (event_id) DO NOTHING`,
		event.EventID,
		event.EventType,
		event.Partition,
		event.OccurredAtUTC.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(event.Payload),
	)
	if err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	if t.logger != nil {
		t.logger.Debug("audit row appended",
			"event", "audit_append",
			"module", "internal/platform/audit",
			"layer", "platform",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
	}
	return nil
}

// ListByPartition returns the recorded events for one storage partition in
// occurrence order, newest last.
func (t *Trail) ListByPartition(ctx context.Context, partition string, limit int) ([]events.Envelope, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT event_id, event_type, partition, occurred_at, payload
		 FROM audit_log WHERE partition = ? ORDER BY occurred_at ASC LIMIT ?`,
		partition, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit rows: %w", err)
	}
	defer rows.Close()

	var out []events.Envelope
	for rows.Next() {
		var event events.Envelope
		var occurredAt string
		var payload string
		if err := rows.Scan(&event.EventID, &event.EventType, &event.Partition, &occurredAt, &payload); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, occurredAt); err == nil {
			event.OccurredAtUTC = ts
		}
		event.Payload = []byte(payload)
		out = append(out, event)
	}
	return out, rows.Err()
}

// AttachBus subscribes the trail to every notification type the modules
// emit. Subscriptions live until ctx is cancelled.
func (t *Trail) AttachBus(ctx context.Context, bus *messaging.Bus) error {
	for _, eventType := range []string{
		events.TypeOwnershipTransferStarted,
		events.TypeOwnershipTransferred,
		events.TypeRoleGranted,
		events.TypeRoleRevoked,
		events.TypeRoleAdminChanged,
	} {
		if err := bus.Subscribe(ctx, eventType, t.Record); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trail) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Close()
}

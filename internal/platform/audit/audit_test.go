package audit

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"compose/internal/shared/events"
)

func openTestTrail(t *testing.T) *Trail {
	t.Helper()
	trail, err := Open(filepath.Join(t.TempDir(), "audit.db"), nil)
	if err != nil {
		t.Fatalf("open trail: %v", err)
	}
	t.Cleanup(func() { _ = trail.Close() })
	return trail
}

func envelope(id string, occurredAt time.Time) events.Envelope {
	payload, _ := json.Marshal(events.RoleMembershipPayload{
		Role:    "0xrole",
		Account: "alice",
		Sender:  "root",
	})
	return events.Envelope{
		EventID:       id,
		EventType:     events.TypeRoleGranted,
		SourceService: "compose",
		OccurredAtUTC: occurredAt,
		Partition:     "0xpartition",
		SchemaVersion: 1,
		Payload:       payload,
	}
}

func TestRecordAndListByPartition(t *testing.T) {
	trail := openTestTrail(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"evt-1", "evt-2"} {
		if err := trail.Record(ctx, envelope(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	rows, err := trail.ListByPartition(ctx, "0xpartition", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].EventID != "evt-1" || rows[1].EventID != "evt-2" {
		t.Fatalf("expected occurrence order, got %q then %q", rows[0].EventID, rows[1].EventID)
	}
}

func TestRecordIgnoresRedeliveredEventIDs(t *testing.T) {
	trail := openTestTrail(t)
	ctx := context.Background()
	event := envelope("evt-1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	if err := trail.Record(ctx, event); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := trail.Record(ctx, event); err != nil {
		t.Fatalf("redelivered record: %v", err)
	}

	rows, err := trail.ListByPartition(ctx, "0xpartition", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected dedup to keep one row, got %d", len(rows))
	}
}

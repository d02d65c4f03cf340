package commands

import (
	"context"
	"encoding/json"
	"time"

	"compose/contexts/access-control/ownership/ports"
	"compose/internal/shared/events"
	"compose/internal/shared/storage"
)

const sourceService = "compose"

func newNotification(
	ctx context.Context,
	idGenerator ports.IDGenerator,
	eventType string,
	occurredAt time.Time,
	payload any,
) (events.Envelope, error) {
	eventID, err := idGenerator.NewID(ctx)
	if err != nil {
		return events.Envelope{}, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: sourceService,
		OccurredAtUTC: occurredAt,
		Partition:     storage.Resolve(ports.Namespace).String(),
		SchemaVersion: 1,
		Payload:       body,
	}, nil
}

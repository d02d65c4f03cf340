package events

import (
	"encoding/json"
	"time"
)

// Event types emitted by the access-control modules.
const (
	TypeOwnershipTransferStarted = "compose.ownership.transfer_started"
	TypeOwnershipTransferred     = "compose.ownership.transferred"
	TypeRoleGranted              = "compose.access_control.role_granted"
	TypeRoleRevoked              = "compose.access_control.role_revoked"
	TypeRoleAdminChanged         = "compose.access_control.role_admin_changed"
)

// Envelope is the shared notification shape used across compose modules.
// Consumed by external observers (audit trail, downstream facets), never by
// the emitting module itself.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	SourceService string          `json:"source_service"`
	OccurredAtUTC time.Time       `json:"occurred_at_utc"`
	Partition     string          `json:"partition"`
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// OwnershipTransferPayload carries previous/new owner for both the
// transfer-started and transfer-completed notifications.
type OwnershipTransferPayload struct {
	PreviousOwner string `json:"previous_owner"`
	NewOwner      string `json:"new_owner"`
}

// RoleMembershipPayload carries the membership change for grant/revoke.
type RoleMembershipPayload struct {
	Role    string `json:"role"`
	Account string `json:"account"`
	Sender  string `json:"sender"`
}

// RoleAdminChangedPayload carries the one-hop admin pointer update.
type RoleAdminChangedPayload struct {
	Role              string `json:"role"`
	PreviousAdminRole string `json:"previous_admin_role"`
	NewAdminRole      string `json:"new_admin_role"`
}

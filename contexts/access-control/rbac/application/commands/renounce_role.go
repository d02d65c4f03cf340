package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "compose/contexts/access-control/rbac/application"
	"compose/contexts/access-control/rbac/domain/entities"
	domainerrors "compose/contexts/access-control/rbac/domain/errors"
	"compose/contexts/access-control/rbac/ports"
	"compose/internal/shared/events"
)

// RenounceRoleCommand gives up the caller's own role. Account must equal
// the caller; the explicit confirmation prevents renouncing on someone
// else's behalf by accident.
type RenounceRoleCommand struct {
	IdempotencyKey string
	Role           string
	Account        string
	Caller         string
}

// RenounceRoleResult mirrors RevokeRoleResult for the self-service path.
type RenounceRoleResult struct {
	Role     string `json:"role"`
	Account  string `json:"account"`
	Revoked  bool   `json:"revoked"`
	Replayed bool   `json:"replayed"`
}

// RenounceRoleUseCase is revoke without the admin-role guard: any account
// may always give up a role it holds, regardless of who administers it.
type RenounceRoleUseCase struct {
	Repository     ports.Repository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (u RenounceRoleUseCase) Execute(ctx context.Context, cmd RenounceRoleCommand) (RenounceRoleResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return RenounceRoleResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if !entities.ValidRole(cmd.Role) {
		return RenounceRoleResult{}, domainerrors.ErrInvalidRole
	}
	if strings.TrimSpace(cmd.Account) == "" || strings.TrimSpace(cmd.Caller) == "" {
		return RenounceRoleResult{}, domainerrors.ErrInvalidAccount
	}
	if cmd.Caller != cmd.Account {
		return RenounceRoleResult{}, domainerrors.ErrBadConfirmation
	}

	requestHash, err := hashRequest(struct {
		Operation string `json:"operation"`
		Role      string `json:"role"`
		Account   string `json:"account"`
	}{
		Operation: "renounce_role",
		Role:      cmd.Role,
		Account:   cmd.Account,
	})
	if err != nil {
		return RenounceRoleResult{}, err
	}

	idempotencyKey := idempotencyKeyPrefix + cmd.IdempotencyKey
	now := u.now()

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return RenounceRoleResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return RenounceRoleResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay RenounceRoleResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return RenounceRoleResult{}, err
		}
		replay.Replayed = true
		return replay, nil
	}

	notification, err := newNotification(ctx, u.IDGenerator, events.TypeRoleRevoked, now,
		events.RoleMembershipPayload{
			Role:    cmd.Role,
			Account: cmd.Account,
			Sender:  cmd.Caller,
		})
	if err != nil {
		return RenounceRoleResult{}, err
	}

	changed, err := u.Repository.SetMembership(ctx, ports.SetMembershipInput{
		Role:         cmd.Role,
		Account:      cmd.Account,
		Member:       false,
		Notification: notification,
		OccurredAt:   now,
	})
	if err != nil {
		logger.Error("renounce role write failed",
			"event", "access_renounce_role_write_failed",
			"module", "access-control/rbac",
			"layer", "application",
			"role", cmd.Role,
			"account", cmd.Account,
			"error", err.Error(),
		)
		return RenounceRoleResult{}, err
	}

	result := RenounceRoleResult{
		Role:    cmd.Role,
		Account: cmd.Account,
		Revoked: changed,
	}
	responsePayload, err := json.Marshal(result)
	if err != nil {
		return RenounceRoleResult{}, err
	}
	if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             idempotencyKey,
		Operation:       "renounce_role",
		RequestHash:     requestHash,
		ResponsePayload: responsePayload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); err != nil {
		return RenounceRoleResult{}, err
	}

	logger.Info("renounce role completed",
		"event", "access_renounce_role_completed",
		"module", "access-control/rbac",
		"layer", "application",
		"role", cmd.Role,
		"account", cmd.Account,
		"changed", changed,
	)
	return result, nil
}

func (u RenounceRoleUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u RenounceRoleUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

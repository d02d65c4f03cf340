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

// RevokeRoleCommand contains transport-agnostic input for role revocation.
type RevokeRoleCommand struct {
	IdempotencyKey string
	Role           string
	Account        string
	Caller         string
}

// RevokeRoleResult reports whether the membership actually changed and
// whether the call was an idempotent replay.
type RevokeRoleResult struct {
	Role     string `json:"role"`
	Account  string `json:"account"`
	Revoked  bool   `json:"revoked"`
	Replayed bool   `json:"replayed"`
}

// RevokeRoleUseCase sets hasRole[account][role] = false, guarded by the
// caller holding the role's admin role. The role-revoked notification goes
// out only when the account actually held the role.
type RevokeRoleUseCase struct {
	Repository     ports.Repository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (u RevokeRoleUseCase) Execute(ctx context.Context, cmd RevokeRoleCommand) (RevokeRoleResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return RevokeRoleResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if !entities.ValidRole(cmd.Role) {
		return RevokeRoleResult{}, domainerrors.ErrInvalidRole
	}
	if strings.TrimSpace(cmd.Account) == "" || strings.TrimSpace(cmd.Caller) == "" {
		return RevokeRoleResult{}, domainerrors.ErrInvalidAccount
	}

	requestHash, err := hashRequest(struct {
		Operation string `json:"operation"`
		Role      string `json:"role"`
		Account   string `json:"account"`
		Caller    string `json:"caller"`
	}{
		Operation: "revoke_role",
		Role:      cmd.Role,
		Account:   cmd.Account,
		Caller:    cmd.Caller,
	})
	if err != nil {
		return RevokeRoleResult{}, err
	}

	idempotencyKey := idempotencyKeyPrefix + cmd.IdempotencyKey
	now := u.now()

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return RevokeRoleResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return RevokeRoleResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay RevokeRoleResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return RevokeRoleResult{}, err
		}
		replay.Replayed = true
		return replay, nil
	}

	if err := checkRoleAdmin(ctx, u.Repository, cmd.Role, cmd.Caller); err != nil {
		return RevokeRoleResult{}, err
	}

	notification, err := newNotification(ctx, u.IDGenerator, events.TypeRoleRevoked, now,
		events.RoleMembershipPayload{
			Role:    cmd.Role,
			Account: cmd.Account,
			Sender:  cmd.Caller,
		})
	if err != nil {
		return RevokeRoleResult{}, err
	}

	changed, err := u.Repository.SetMembership(ctx, ports.SetMembershipInput{
		Role:         cmd.Role,
		Account:      cmd.Account,
		Member:       false,
		Notification: notification,
		OccurredAt:   now,
	})
	if err != nil {
		logger.Error("revoke role write failed",
			"event", "access_revoke_role_write_failed",
			"module", "access-control/rbac",
			"layer", "application",
			"role", cmd.Role,
			"account", cmd.Account,
			"error", err.Error(),
		)
		return RevokeRoleResult{}, err
	}

	result := RevokeRoleResult{
		Role:    cmd.Role,
		Account: cmd.Account,
		Revoked: changed,
	}
	responsePayload, err := json.Marshal(result)
	if err != nil {
		return RevokeRoleResult{}, err
	}
	if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             idempotencyKey,
		Operation:       "revoke_role",
		RequestHash:     requestHash,
		ResponsePayload: responsePayload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); err != nil {
		return RevokeRoleResult{}, err
	}

	logger.Info("revoke role completed",
		"event", "access_revoke_role_completed",
		"module", "access-control/rbac",
		"layer", "application",
		"role", cmd.Role,
		"account", cmd.Account,
		"changed", changed,
	)
	return result, nil
}

func (u RevokeRoleUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u RevokeRoleUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

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

// GrantRoleCommand contains transport-agnostic input for role grants.
type GrantRoleCommand struct {
	IdempotencyKey string
	Role           string
	Account        string
	Caller         string
}

// GrantRoleResult reports whether the membership actually changed and
// whether the call was an idempotent replay.
type GrantRoleResult struct {
	Role     string `json:"role"`
	Account  string `json:"account"`
	Granted  bool   `json:"granted"`
	Replayed bool   `json:"replayed"`
}

// GrantRoleUseCase sets hasRole[account][role] = true, guarded by the
// caller holding the role's admin role. Granting an already-held role is a
// silent no-op: the role-granted notification goes out on first grant only.
type GrantRoleUseCase struct {
	Repository     ports.Repository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (u GrantRoleUseCase) Execute(ctx context.Context, cmd GrantRoleCommand) (GrantRoleResult, error) {
	logger := application.ResolveLogger(u.Logger)
	logger.Info("grant role started",
		"event", "access_grant_role_started",
		"module", "access-control/rbac",
		"layer", "application",
		"role", cmd.Role,
		"account", cmd.Account,
		"caller", cmd.Caller,
	)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return GrantRoleResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if !entities.ValidRole(cmd.Role) {
		return GrantRoleResult{}, domainerrors.ErrInvalidRole
	}
	if strings.TrimSpace(cmd.Account) == "" || strings.TrimSpace(cmd.Caller) == "" {
		return GrantRoleResult{}, domainerrors.ErrInvalidAccount
	}

	requestHash, err := hashRequest(struct {
		Operation string `json:"operation"`
		Role      string `json:"role"`
		Account   string `json:"account"`
		Caller    string `json:"caller"`
	}{
		Operation: "grant_role",
		Role:      cmd.Role,
		Account:   cmd.Account,
		Caller:    cmd.Caller,
	})
	if err != nil {
		return GrantRoleResult{}, err
	}

	idempotencyKey := idempotencyKeyPrefix + cmd.IdempotencyKey
	now := u.now()

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return GrantRoleResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return GrantRoleResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay GrantRoleResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return GrantRoleResult{}, err
		}
		replay.Replayed = true
		return replay, nil
	}

	if err := checkRoleAdmin(ctx, u.Repository, cmd.Role, cmd.Caller); err != nil {
		return GrantRoleResult{}, err
	}

	notification, err := newNotification(ctx, u.IDGenerator, events.TypeRoleGranted, now,
		events.RoleMembershipPayload{
			Role:    cmd.Role,
			Account: cmd.Account,
			Sender:  cmd.Caller,
		})
	if err != nil {
		return GrantRoleResult{}, err
	}

	changed, err := u.Repository.SetMembership(ctx, ports.SetMembershipInput{
		Role:         cmd.Role,
		Account:      cmd.Account,
		Member:       true,
		Notification: notification,
		OccurredAt:   now,
	})
	if err != nil {
		logger.Error("grant role write failed",
			"event", "access_grant_role_write_failed",
			"module", "access-control/rbac",
			"layer", "application",
			"role", cmd.Role,
			"account", cmd.Account,
			"error", err.Error(),
		)
		return GrantRoleResult{}, err
	}

	result := GrantRoleResult{
		Role:    cmd.Role,
		Account: cmd.Account,
		Granted: changed,
	}
	responsePayload, err := json.Marshal(result)
	if err != nil {
		return GrantRoleResult{}, err
	}
	if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             idempotencyKey,
		Operation:       "grant_role",
		RequestHash:     requestHash,
		ResponsePayload: responsePayload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); err != nil {
		return GrantRoleResult{}, err
	}

	logger.Info("grant role completed",
		"event", "access_grant_role_completed",
		"module", "access-control/rbac",
		"layer", "application",
		"role", cmd.Role,
		"account", cmd.Account,
		"changed", changed,
	)
	return result, nil
}

func (u GrantRoleUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u GrantRoleUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

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

// SetRoleAdminCommand updates the one-hop admin pointer for a role.
type SetRoleAdminCommand struct {
	IdempotencyKey string
	Role           string
	AdminRole      string
	Caller         string
}

// SetRoleAdminResult reports the pointer update.
type SetRoleAdminResult struct {
	Role              string `json:"role"`
	PreviousAdminRole string `json:"previous_admin_role"`
	AdminRole         string `json:"admin_role"`
	Replayed          bool   `json:"replayed"`
}

// SetRoleAdminUseCase is reserved to DefaultAdminRole holders. It writes a
// single pointer and never validates the resulting graph: cycles and
// multiple roots are the caller's convention to maintain, and resolution
// stays one hop everywhere.
type SetRoleAdminUseCase struct {
	Repository     ports.Repository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (u SetRoleAdminUseCase) Execute(ctx context.Context, cmd SetRoleAdminCommand) (SetRoleAdminResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return SetRoleAdminResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if !entities.ValidRole(cmd.Role) || !entities.ValidRole(cmd.AdminRole) {
		return SetRoleAdminResult{}, domainerrors.ErrInvalidRole
	}
	if strings.TrimSpace(cmd.Caller) == "" {
		return SetRoleAdminResult{}, domainerrors.ErrInvalidAccount
	}

	requestHash, err := hashRequest(struct {
		Operation string `json:"operation"`
		Role      string `json:"role"`
		AdminRole string `json:"admin_role"`
		Caller    string `json:"caller"`
	}{
		Operation: "set_role_admin",
		Role:      cmd.Role,
		AdminRole: cmd.AdminRole,
		Caller:    cmd.Caller,
	})
	if err != nil {
		return SetRoleAdminResult{}, err
	}

	idempotencyKey := idempotencyKeyPrefix + cmd.IdempotencyKey
	now := u.now()

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return SetRoleAdminResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return SetRoleAdminResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay SetRoleAdminResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return SetRoleAdminResult{}, err
		}
		replay.Replayed = true
		return replay, nil
	}

	if err := CheckRole(ctx, u.Repository, entities.DefaultAdminRole, cmd.Caller); err != nil {
		return SetRoleAdminResult{}, err
	}

	previous, err := u.Repository.GetRoleAdmin(ctx, cmd.Role)
	if err != nil {
		return SetRoleAdminResult{}, err
	}

	notification, err := newNotification(ctx, u.IDGenerator, events.TypeRoleAdminChanged, now,
		events.RoleAdminChangedPayload{
			Role:              cmd.Role,
			PreviousAdminRole: previous,
			NewAdminRole:      cmd.AdminRole,
		})
	if err != nil {
		return SetRoleAdminResult{}, err
	}

	if err := u.Repository.SetRoleAdmin(ctx, ports.SetRoleAdminInput{
		Role:         cmd.Role,
		AdminRole:    cmd.AdminRole,
		Notification: notification,
		OccurredAt:   now,
	}); err != nil {
		logger.Error("set role admin write failed",
			"event", "access_set_role_admin_write_failed",
			"module", "access-control/rbac",
			"layer", "application",
			"role", cmd.Role,
			"admin_role", cmd.AdminRole,
			"error", err.Error(),
		)
		return SetRoleAdminResult{}, err
	}

	result := SetRoleAdminResult{
		Role:              cmd.Role,
		PreviousAdminRole: previous,
		AdminRole:         cmd.AdminRole,
	}
	responsePayload, err := json.Marshal(result)
	if err != nil {
		return SetRoleAdminResult{}, err
	}
	if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             idempotencyKey,
		Operation:       "set_role_admin",
		RequestHash:     requestHash,
		ResponsePayload: responsePayload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); err != nil {
		return SetRoleAdminResult{}, err
	}

	logger.Info("role admin changed",
		"event", "access_role_admin_changed",
		"module", "access-control/rbac",
		"layer", "application",
		"role", cmd.Role,
		"previous_admin_role", previous,
		"admin_role", cmd.AdminRole,
	)
	return result, nil
}

func (u SetRoleAdminUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u SetRoleAdminUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

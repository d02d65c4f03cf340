package httpadapter

import (
	"context"
	"log/slog"

	application "compose/contexts/access-control/rbac/application"
	"compose/contexts/access-control/rbac/application/commands"
	"compose/contexts/access-control/rbac/application/queries"
	httptransport "compose/contexts/access-control/rbac/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	HasRole      queries.HasRoleUseCase
	GetRoleAdmin queries.GetRoleAdminUseCase
	Grant        commands.GrantRoleUseCase
	Revoke       commands.RevokeRoleUseCase
	Renounce     commands.RenounceRoleUseCase
	SetRoleAdmin commands.SetRoleAdminUseCase
	Logger       *slog.Logger
}

// HasRoleHandler answers the pure membership test.
func (h Handler) HasRoleHandler(ctx context.Context, role string, account string) (httptransport.HasRoleResponse, error) {
	held, err := h.HasRole.Execute(ctx, queries.HasRoleQuery{Role: role, Account: account})
	if err != nil {
		return httptransport.HasRoleResponse{}, err
	}
	return httptransport.HasRoleResponse{Role: role, Account: account, HasRole: held}, nil
}

// RoleAdminHandler resolves the one-hop admin pointer for a role.
func (h Handler) RoleAdminHandler(ctx context.Context, role string) (httptransport.RoleAdminResponse, error) {
	adminRole, err := h.GetRoleAdmin.Execute(ctx, queries.GetRoleAdminQuery{Role: role})
	if err != nil {
		return httptransport.RoleAdminResponse{}, err
	}
	return httptransport.RoleAdminResponse{Role: role, AdminRole: adminRole}, nil
}

// GrantHandler grants a role, guarded by the caller holding its admin role.
func (h Handler) GrantHandler(
	ctx context.Context,
	idempotencyKey string,
	role string,
	caller string,
	request httptransport.GrantRoleRequest,
) (httptransport.GrantRoleResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http grant role received",
		"event", "access_http_grant_role_received",
		"module", "access-control/rbac",
		"layer", "transport",
		"role", role,
		"caller", caller,
	)

	result, err := h.Grant.Execute(ctx, commands.GrantRoleCommand{
		IdempotencyKey: idempotencyKey,
		Role:           role,
		Account:        request.Account,
		Caller:         caller,
	})
	if err != nil {
		return httptransport.GrantRoleResponse{}, err
	}
	return httptransport.GrantRoleResponse{
		Role:     result.Role,
		Account:  result.Account,
		Granted:  result.Granted,
		Replayed: result.Replayed,
	}, nil
}

// RevokeHandler revokes a role, guarded by the caller holding its admin role.
func (h Handler) RevokeHandler(
	ctx context.Context,
	idempotencyKey string,
	role string,
	caller string,
	request httptransport.RevokeRoleRequest,
) (httptransport.RevokeRoleResponse, error) {
	result, err := h.Revoke.Execute(ctx, commands.RevokeRoleCommand{
		IdempotencyKey: idempotencyKey,
		Role:           role,
		Account:        request.Account,
		Caller:         caller,
	})
	if err != nil {
		return httptransport.RevokeRoleResponse{}, err
	}
	return httptransport.RevokeRoleResponse{
		Role:     result.Role,
		Account:  result.Account,
		Revoked:  result.Revoked,
		Replayed: result.Replayed,
	}, nil
}

// RenounceHandler lets the caller give up their own role. The repeated
// account in the body is the confirmation the use case checks.
func (h Handler) RenounceHandler(
	ctx context.Context,
	idempotencyKey string,
	role string,
	caller string,
	request httptransport.RenounceRoleRequest,
) (httptransport.RenounceRoleResponse, error) {
	result, err := h.Renounce.Execute(ctx, commands.RenounceRoleCommand{
		IdempotencyKey: idempotencyKey,
		Role:           role,
		Account:        request.Account,
		Caller:         caller,
	})
	if err != nil {
		return httptransport.RenounceRoleResponse{}, err
	}
	return httptransport.RenounceRoleResponse{
		Role:     result.Role,
		Account:  result.Account,
		Revoked:  result.Revoked,
		Replayed: result.Replayed,
	}, nil
}

// SetRoleAdminHandler repoints a role's admin role. Reserved to holders of
// the default admin role.
func (h Handler) SetRoleAdminHandler(
	ctx context.Context,
	idempotencyKey string,
	role string,
	caller string,
	request httptransport.SetRoleAdminRequest,
) (httptransport.SetRoleAdminResponse, error) {
	result, err := h.SetRoleAdmin.Execute(ctx, commands.SetRoleAdminCommand{
		IdempotencyKey: idempotencyKey,
		Role:           role,
		AdminRole:      request.AdminRole,
		Caller:         caller,
	})
	if err != nil {
		return httptransport.SetRoleAdminResponse{}, err
	}
	return httptransport.SetRoleAdminResponse{
		Role:              result.Role,
		PreviousAdminRole: result.PreviousAdminRole,
		AdminRole:         result.AdminRole,
		Replayed:          result.Replayed,
	}, nil
}

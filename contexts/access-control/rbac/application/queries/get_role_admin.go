package queries

import (
	"context"
	"log/slog"

	"compose/contexts/access-control/rbac/ports"
)

// GetRoleAdminQuery resolves a role's admin role.
type GetRoleAdminQuery struct {
	Role string
}

// GetRoleAdminUseCase resolves exactly one hop; unconfigured roles read
// DefaultAdminRole. Never fails on valid wiring.
type GetRoleAdminUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func (u GetRoleAdminUseCase) Execute(ctx context.Context, q GetRoleAdminQuery) (string, error) {
	return u.Repository.GetRoleAdmin(ctx, q.Role)
}

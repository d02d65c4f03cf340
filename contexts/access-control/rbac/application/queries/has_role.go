package queries

import (
	"context"
	"log/slog"

	"compose/contexts/access-control/rbac/ports"
)

// HasRoleQuery is the pure membership test input.
type HasRoleQuery struct {
	Role    string
	Account string
}

// HasRoleUseCase never fails on valid wiring; unknown roles and accounts
// simply read false.
type HasRoleUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func (u HasRoleUseCase) Execute(ctx context.Context, q HasRoleQuery) (bool, error) {
	return u.Repository.HasRole(ctx, q.Role, q.Account)
}

package commands

import (
	"context"

	domainerrors "compose/contexts/access-control/rbac/domain/errors"
	"compose/contexts/access-control/rbac/ports"
)

// CheckRole is the single authorization choke-point. It fails with a typed
// unauthorized error naming the account and the missing role; on success it
// returns nil with no other observable effect. Consuming facets route every
// privileged operation through this primitive before touching their own
// state.
func CheckRole(ctx context.Context, repository ports.Repository, role string, account string) error {
	member, err := repository.HasRole(ctx, role, account)
	if err != nil {
		return err
	}
	if !member {
		return domainerrors.UnauthorizedAccountError{Account: account, Role: role}
	}
	return nil
}

// checkRoleAdmin guards a mutation on role by the role's one-hop admin.
func checkRoleAdmin(ctx context.Context, repository ports.Repository, role string, caller string) error {
	adminRole, err := repository.GetRoleAdmin(ctx, role)
	if err != nil {
		return err
	}
	return CheckRole(ctx, repository, adminRole, caller)
}

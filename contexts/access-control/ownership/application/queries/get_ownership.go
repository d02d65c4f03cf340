package queries

import (
	"context"
	"log/slog"

	"compose/contexts/access-control/ownership/domain/entities"
	"compose/contexts/access-control/ownership/ports"
)

// GetOwnershipQuery has no parameters; the module owns a single partition.
type GetOwnershipQuery struct{}

// GetOwnershipUseCase is the read-only accessor for owner and pending
// owner. Never fails on valid wiring.
type GetOwnershipUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func (u GetOwnershipUseCase) Execute(ctx context.Context, _ GetOwnershipQuery) (entities.Ownership, error) {
	return u.Repository.GetOwnership(ctx)
}

package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "compose/contexts/access-control/ownership/application"
	"compose/contexts/access-control/ownership/domain/entities"
	domainerrors "compose/contexts/access-control/ownership/domain/errors"
	"compose/contexts/access-control/ownership/ports"
	"compose/internal/shared/events"
)

// RenounceOwnershipCommand permanently relinquishes ownership.
type RenounceOwnershipCommand struct {
	Caller string
}

// RenounceOwnershipResult reports the terminal transition.
type RenounceOwnershipResult struct {
	PreviousOwner string `json:"previous_owner"`
}

// RenounceOwnershipUseCase sets the owner to the none-sentinel. The
// transition is terminal: no further ownership action is possible.
type RenounceOwnershipUseCase struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u RenounceOwnershipUseCase) Execute(ctx context.Context, cmd RenounceOwnershipCommand) (RenounceOwnershipResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.Caller) == "" {
		return RenounceOwnershipResult{}, domainerrors.ErrInvalidPrincipal
	}

	state, err := u.Repository.GetOwnership(ctx)
	if err != nil {
		return RenounceOwnershipResult{}, err
	}
	if state.Owner == entities.Nobody {
		return RenounceOwnershipResult{}, domainerrors.ErrAlreadyRenounced
	}
	if cmd.Caller != state.Owner {
		return RenounceOwnershipResult{}, domainerrors.UnauthorizedAccountError{Account: cmd.Caller}
	}

	now := u.now()
	notification, err := newNotification(ctx, u.IDGenerator, events.TypeOwnershipTransferred, now,
		events.OwnershipTransferPayload{
			PreviousOwner: state.Owner,
			NewOwner:      entities.Nobody,
		})
	if err != nil {
		return RenounceOwnershipResult{}, err
	}

	if err := u.Repository.SetOwner(ctx, ports.SetOwnerInput{
		ExpectedOwner: state.Owner,
		NewOwner:      entities.Nobody,
		Notification:  notification,
		OccurredAt:    now,
	}); err != nil {
		logger.Error("ownership renounce failed",
			"event", "ownership_renounce_failed",
			"module", "access-control/ownership",
			"layer", "application",
			"caller", cmd.Caller,
			"error", err.Error(),
		)
		return RenounceOwnershipResult{}, err
	}

	logger.Info("ownership renounced",
		"event", "ownership_renounced",
		"module", "access-control/ownership",
		"layer", "application",
		"previous_owner", state.Owner,
	)
	return RenounceOwnershipResult{PreviousOwner: state.Owner}, nil
}

func (u RenounceOwnershipUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

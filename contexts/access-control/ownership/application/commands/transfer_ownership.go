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

// TransferOwnershipCommand starts (or overwrites) a two-step handshake.
type TransferOwnershipCommand struct {
	Caller   string
	NewOwner string
}

// TransferOwnershipResult reports the handshake now in flight.
type TransferOwnershipResult struct {
	Owner        string `json:"owner"`
	PendingOwner string `json:"pending_owner"`
}

// TransferOwnershipUseCase records the pending owner without changing the
// current owner. Re-invocation overwrites the pending value; passing the
// none-sentinel cancels the handshake.
type TransferOwnershipUseCase struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute guards on the current owner, then commits the pending owner and
// its transfer-started notification atomically.
func (u TransferOwnershipUseCase) Execute(ctx context.Context, cmd TransferOwnershipCommand) (TransferOwnershipResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.Caller) == "" {
		return TransferOwnershipResult{}, domainerrors.ErrInvalidPrincipal
	}

	state, err := u.Repository.GetOwnership(ctx)
	if err != nil {
		return TransferOwnershipResult{}, err
	}
	if state.Owner == entities.Nobody {
		return TransferOwnershipResult{}, domainerrors.ErrAlreadyRenounced
	}
	if cmd.Caller != state.Owner {
		return TransferOwnershipResult{}, domainerrors.UnauthorizedAccountError{Account: cmd.Caller}
	}

	now := u.now()
	notification, err := newNotification(ctx, u.IDGenerator, events.TypeOwnershipTransferStarted, now,
		events.OwnershipTransferPayload{
			PreviousOwner: state.Owner,
			NewOwner:      cmd.NewOwner,
		})
	if err != nil {
		return TransferOwnershipResult{}, err
	}

	if err := u.Repository.StartTransfer(ctx, ports.StartTransferInput{
		ExpectedOwner: state.Owner,
		PendingOwner:  cmd.NewOwner,
		Notification:  notification,
		OccurredAt:    now,
	}); err != nil {
		logger.Error("ownership transfer start failed",
			"event", "ownership_transfer_start_failed",
			"module", "access-control/ownership",
			"layer", "application",
			"caller", cmd.Caller,
			"new_owner", cmd.NewOwner,
			"error", err.Error(),
		)
		return TransferOwnershipResult{}, err
	}

	logger.Info("ownership transfer started",
		"event", "ownership_transfer_started",
		"module", "access-control/ownership",
		"layer", "application",
		"owner", state.Owner,
		"pending_owner", cmd.NewOwner,
	)
	return TransferOwnershipResult{Owner: state.Owner, PendingOwner: cmd.NewOwner}, nil
}

func (u TransferOwnershipUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

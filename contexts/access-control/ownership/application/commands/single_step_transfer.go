package commands

import (
	"context"
	"log/slog"
	"time"

	application "compose/contexts/access-control/ownership/application"
	"compose/contexts/access-control/ownership/domain/entities"
	domainerrors "compose/contexts/access-control/ownership/domain/errors"
	"compose/contexts/access-control/ownership/ports"
	"compose/internal/shared/events"
)

// SingleStepTransferCommand reassigns the owner in one shot.
type SingleStepTransferCommand struct {
	NewOwner string
}

// SingleStepTransferResult reports the reassignment.
type SingleStepTransferResult struct {
	PreviousOwner string `json:"previous_owner"`
	Owner         string `json:"owner"`
}

// SingleStepTransferUseCase is the minimal ownership strategy: no pending
// state, no handshake. It enforces no caller check itself; the composite
// system gates the call at its entry point. Passing the none-sentinel as
// the new owner renounces permanently.
type SingleStepTransferUseCase struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u SingleStepTransferUseCase) Execute(ctx context.Context, cmd SingleStepTransferCommand) (SingleStepTransferResult, error) {
	logger := application.ResolveLogger(u.Logger)

	state, err := u.Repository.GetOwnership(ctx)
	if err != nil {
		return SingleStepTransferResult{}, err
	}
	if state.Owner == entities.Nobody {
		return SingleStepTransferResult{}, domainerrors.ErrAlreadyRenounced
	}

	now := u.now()
	notification, err := newNotification(ctx, u.IDGenerator, events.TypeOwnershipTransferred, now,
		events.OwnershipTransferPayload{
			PreviousOwner: state.Owner,
			NewOwner:      cmd.NewOwner,
		})
	if err != nil {
		return SingleStepTransferResult{}, err
	}

	if err := u.Repository.SetOwner(ctx, ports.SetOwnerInput{
		ExpectedOwner: state.Owner,
		NewOwner:      cmd.NewOwner,
		Notification:  notification,
		OccurredAt:    now,
	}); err != nil {
		logger.Error("single-step transfer failed",
			"event", "ownership_single_step_transfer_failed",
			"module", "access-control/ownership",
			"layer", "application",
			"new_owner", cmd.NewOwner,
			"error", err.Error(),
		)
		return SingleStepTransferResult{}, err
	}

	logger.Info("ownership transferred",
		"event", "ownership_transferred",
		"module", "access-control/ownership",
		"layer", "application",
		"previous_owner", state.Owner,
		"owner", cmd.NewOwner,
	)
	return SingleStepTransferResult{PreviousOwner: state.Owner, Owner: cmd.NewOwner}, nil
}

func (u SingleStepTransferUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

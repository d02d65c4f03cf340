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

// AcceptOwnershipCommand completes the handshake for the pending owner.
type AcceptOwnershipCommand struct {
	Caller string
}

// AcceptOwnershipResult reports the completed transfer.
type AcceptOwnershipResult struct {
	PreviousOwner string `json:"previous_owner"`
	Owner         string `json:"owner"`
}

// AcceptOwnershipUseCase atomically promotes the pending owner and clears
// the pending slot. Only the pending owner itself may complete the
// handshake; no principal ever equals the none-sentinel.
type AcceptOwnershipUseCase struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u AcceptOwnershipUseCase) Execute(ctx context.Context, cmd AcceptOwnershipCommand) (AcceptOwnershipResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.Caller) == "" {
		return AcceptOwnershipResult{}, domainerrors.ErrInvalidPrincipal
	}

	state, err := u.Repository.GetOwnership(ctx)
	if err != nil {
		return AcceptOwnershipResult{}, err
	}
	if state.PendingOwner == entities.Nobody || cmd.Caller != state.PendingOwner {
		return AcceptOwnershipResult{}, domainerrors.UnauthorizedAccountError{Account: cmd.Caller}
	}

	now := u.now()
	notification, err := newNotification(ctx, u.IDGenerator, events.TypeOwnershipTransferred, now,
		events.OwnershipTransferPayload{
			PreviousOwner: state.Owner,
			NewOwner:      state.PendingOwner,
		})
	if err != nil {
		return AcceptOwnershipResult{}, err
	}

	if err := u.Repository.CompleteTransfer(ctx, ports.CompleteTransferInput{
		ExpectedPendingOwner: state.PendingOwner,
		Notification:         notification,
		OccurredAt:           now,
	}); err != nil {
		logger.Error("ownership transfer completion failed",
			"event", "ownership_accept_failed",
			"module", "access-control/ownership",
			"layer", "application",
			"caller", cmd.Caller,
			"error", err.Error(),
		)
		return AcceptOwnershipResult{}, err
	}

	logger.Info("ownership transferred",
		"event", "ownership_transferred",
		"module", "access-control/ownership",
		"layer", "application",
		"previous_owner", state.Owner,
		"owner", state.PendingOwner,
	)
	return AcceptOwnershipResult{PreviousOwner: state.Owner, Owner: state.PendingOwner}, nil
}

func (u AcceptOwnershipUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

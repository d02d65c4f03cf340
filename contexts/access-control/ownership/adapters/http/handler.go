package httpadapter

import (
	"context"
	"log/slog"

	application "compose/contexts/access-control/ownership/application"
	"compose/contexts/access-control/ownership/application/commands"
	"compose/contexts/access-control/ownership/application/queries"
	httptransport "compose/contexts/access-control/ownership/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries. Command handlers
// for the strategy that is not wired are simply never routed by the facet.
type Handler struct {
	GetOwnership       queries.GetOwnershipUseCase
	Initialize         commands.InitializeUseCase
	Transfer           commands.TransferOwnershipUseCase
	Accept             commands.AcceptOwnershipUseCase
	Renounce           commands.RenounceOwnershipUseCase
	SingleStepTransfer commands.SingleStepTransferUseCase
	Logger             *slog.Logger
}

// OwnerHandler returns the current ownership state.
func (h Handler) OwnerHandler(ctx context.Context) (httptransport.OwnershipResponse, error) {
	state, err := h.GetOwnership.Execute(ctx, queries.GetOwnershipQuery{})
	if err != nil {
		return httptransport.OwnershipResponse{}, err
	}
	return httptransport.OwnershipResponse{
		Initialized:  state.Initialized,
		Owner:        state.Owner,
		PendingOwner: state.PendingOwner,
	}, nil
}

// InitializeHandler performs the one-time two-step bootstrap.
func (h Handler) InitializeHandler(ctx context.Context, caller string) (httptransport.InitializeResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http ownership initialize received",
		"event", "ownership_http_initialize_received",
		"module", "access-control/ownership",
		"layer", "transport",
		"caller", caller,
	)

	result, err := h.Initialize.Execute(ctx, commands.InitializeCommand{Caller: caller})
	if err != nil {
		return httptransport.InitializeResponse{}, err
	}
	return httptransport.InitializeResponse{Owner: result.Owner}, nil
}

// TransferHandler starts or overwrites a two-step handshake.
func (h Handler) TransferHandler(
	ctx context.Context,
	caller string,
	request httptransport.TransferOwnershipRequest,
) (httptransport.TransferOwnershipResponse, error) {
	result, err := h.Transfer.Execute(ctx, commands.TransferOwnershipCommand{
		Caller:   caller,
		NewOwner: request.NewOwner,
	})
	if err != nil {
		return httptransport.TransferOwnershipResponse{}, err
	}
	return httptransport.TransferOwnershipResponse{
		Owner:        result.Owner,
		PendingOwner: result.PendingOwner,
	}, nil
}

// SingleStepTransferHandler reassigns the owner in one shot. The module
// enforces no caller check here; the facet gates the route.
func (h Handler) SingleStepTransferHandler(
	ctx context.Context,
	request httptransport.TransferOwnershipRequest,
) (httptransport.TransferOwnershipResponse, error) {
	result, err := h.SingleStepTransfer.Execute(ctx, commands.SingleStepTransferCommand{
		NewOwner: request.NewOwner,
	})
	if err != nil {
		return httptransport.TransferOwnershipResponse{}, err
	}
	return httptransport.TransferOwnershipResponse{
		Owner:        result.Owner,
		PendingOwner: "",
	}, nil
}

// AcceptHandler completes the handshake for the pending owner.
func (h Handler) AcceptHandler(ctx context.Context, caller string) (httptransport.AcceptOwnershipResponse, error) {
	result, err := h.Accept.Execute(ctx, commands.AcceptOwnershipCommand{Caller: caller})
	if err != nil {
		return httptransport.AcceptOwnershipResponse{}, err
	}
	return httptransport.AcceptOwnershipResponse{
		PreviousOwner: result.PreviousOwner,
		Owner:         result.Owner,
	}, nil
}

// RenounceHandler permanently relinquishes ownership.
func (h Handler) RenounceHandler(ctx context.Context, caller string) (httptransport.RenounceOwnershipResponse, error) {
	result, err := h.Renounce.Execute(ctx, commands.RenounceOwnershipCommand{Caller: caller})
	if err != nil {
		return httptransport.RenounceOwnershipResponse{}, err
	}
	return httptransport.RenounceOwnershipResponse{PreviousOwner: result.PreviousOwner}, nil
}

package ownership

import (
	"context"
	"log/slog"

	httpadapter "compose/contexts/access-control/ownership/adapters/http"
	"compose/contexts/access-control/ownership/adapters/memory"
	"compose/contexts/access-control/ownership/application/commands"
	"compose/contexts/access-control/ownership/application/queries"
	"compose/contexts/access-control/ownership/application/workers"
	"compose/contexts/access-control/ownership/ports"
	"compose/internal/shared/storage"
)

// Strategy selects which transfer protocol the facet wires.
type Strategy string

const (
	StrategySingleStep Strategy = "single_step"
	StrategyTwoStep    Strategy = "two_step"
)

// Module is the ownership composition root exposed to runtime wiring.
type Module struct {
	Handler    httpadapter.Handler
	Capability ports.Capability
	Relay      workers.OutboxRelay
	Strategy   Strategy
	Store      *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository  ports.Repository
	Outbox      ports.OutboxRepository
	Publisher   ports.NotificationPublisher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Strategy    Strategy
	Logger      *slog.Logger
}

// NewModule wires ownership use-cases and the transport handler using
// explicit ports. Both strategies are constructed; Strategy records which
// one the facet routes.
func NewModule(deps Dependencies) Module {
	getOwnership := queries.GetOwnershipUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	initialize := commands.InitializeUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	transfer := commands.TransferOwnershipUseCase{
		Repository:  deps.Repository,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	accept := commands.AcceptOwnershipUseCase{
		Repository:  deps.Repository,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	renounce := commands.RenounceOwnershipUseCase{
		Repository:  deps.Repository,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	singleStep := commands.SingleStepTransferUseCase{
		Repository:  deps.Repository,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}

	handler := httpadapter.Handler{
		GetOwnership:       getOwnership,
		Initialize:         initialize,
		Transfer:           transfer,
		Accept:             accept,
		Renounce:           renounce,
		SingleStepTransfer: singleStep,
		Logger:             deps.Logger,
	}

	strategy := deps.Strategy
	if strategy == "" {
		strategy = StrategyTwoStep
	}

	var capability ports.Capability
	if strategy == StrategySingleStep {
		capability = singleStepCapability{get: getOwnership, transfer: singleStep}
	} else {
		capability = twoStepCapability{get: getOwnership, transfer: transfer}
	}

	return Module{
		Handler:    handler,
		Capability: capability,
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		Strategy: strategy,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters claiming the ownership partition from space.
func NewInMemoryModule(space *storage.Space, publisher ports.NotificationPublisher, strategy Strategy, logger *slog.Logger) (Module, error) {
	store, err := memory.NewStore(space)
	if err != nil {
		return Module{}, err
	}
	module := NewModule(Dependencies{
		Repository:  store,
		Outbox:      store,
		Publisher:   publisher,
		Clock:       store,
		IDGenerator: store,
		Strategy:    strategy,
		Logger:      logger,
	})
	module.Store = store
	return module, nil
}

type twoStepCapability struct {
	get      queries.GetOwnershipUseCase
	transfer commands.TransferOwnershipUseCase
}

func (c twoStepCapability) Owner(ctx context.Context) (string, error) {
	state, err := c.get.Execute(ctx, queries.GetOwnershipQuery{})
	if err != nil {
		return "", err
	}
	return state.Owner, nil
}

func (c twoStepCapability) TransferOwnership(ctx context.Context, caller string, newOwner string) error {
	_, err := c.transfer.Execute(ctx, commands.TransferOwnershipCommand{
		Caller:   caller,
		NewOwner: newOwner,
	})
	return err
}

type singleStepCapability struct {
	get      queries.GetOwnershipUseCase
	transfer commands.SingleStepTransferUseCase
}

func (c singleStepCapability) Owner(ctx context.Context) (string, error) {
	state, err := c.get.Execute(ctx, queries.GetOwnershipQuery{})
	if err != nil {
		return "", err
	}
	return state.Owner, nil
}

// TransferOwnership under the single-step strategy enforces no caller
// check; composite systems gate the call at their entry points.
func (c singleStepCapability) TransferOwnership(ctx context.Context, _ string, newOwner string) error {
	_, err := c.transfer.Execute(ctx, commands.SingleStepTransferCommand{NewOwner: newOwner})
	return err
}

package rbac

import (
	"context"
	"log/slog"
	"time"

	httpadapter "compose/contexts/access-control/rbac/adapters/http"
	"compose/contexts/access-control/rbac/adapters/memory"
	"compose/contexts/access-control/rbac/application/commands"
	"compose/contexts/access-control/rbac/application/queries"
	"compose/contexts/access-control/rbac/application/workers"
	"compose/contexts/access-control/rbac/ports"
	"compose/internal/shared/storage"
)

const defaultIdempotencyTTL = 24 * time.Hour

// Module is the access-control composition root exposed to runtime wiring.
type Module struct {
	Handler    httpadapter.Handler
	Repository ports.Repository
	Relay      workers.OutboxRelay
	Store      *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository     ports.Repository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxRepository
	Publisher      ports.NotificationPublisher
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// NewModule wires access-control use-cases and the transport handler using
// explicit ports.
func NewModule(deps Dependencies) Module {
	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}

	hasRole := queries.HasRoleUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	getRoleAdmin := queries.GetRoleAdminUseCase{
		Repository: deps.Repository,
		Logger:     deps.Logger,
	}
	grant := commands.GrantRoleUseCase{
		Repository:     deps.Repository,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: ttl,
		Logger:         deps.Logger,
	}
	revoke := commands.RevokeRoleUseCase{
		Repository:     deps.Repository,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: ttl,
		Logger:         deps.Logger,
	}
	renounce := commands.RenounceRoleUseCase{
		Repository:     deps.Repository,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: ttl,
		Logger:         deps.Logger,
	}
	setRoleAdmin := commands.SetRoleAdminUseCase{
		Repository:     deps.Repository,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: ttl,
		Logger:         deps.Logger,
	}

	handler := httpadapter.Handler{
		HasRole:      hasRole,
		GetRoleAdmin: getRoleAdmin,
		Grant:        grant,
		Revoke:       revoke,
		Renounce:     renounce,
		SetRoleAdmin: setRoleAdmin,
		Logger:       deps.Logger,
	}

	return Module{
		Handler:    handler,
		Repository: deps.Repository,
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// CheckRole is the module's guard primitive for composite systems: nil when
// account holds role, an unauthorized-account error otherwise.
func (m Module) CheckRole(ctx context.Context, role string, account string) error {
	return commands.CheckRole(ctx, m.Repository, role, account)
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters claiming the access-control partition from space.
func NewInMemoryModule(space *storage.Space, publisher ports.NotificationPublisher, logger *slog.Logger) (Module, error) {
	store, err := memory.NewStore(space)
	if err != nil {
		return Module{}, err
	}
	module := NewModule(Dependencies{
		Repository:  store,
		Idempotency: store,
		Outbox:      store,
		Publisher:   publisher,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module, nil
}

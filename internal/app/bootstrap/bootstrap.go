package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	ownership "compose/contexts/access-control/ownership"
	ownershippostgres "compose/contexts/access-control/ownership/adapters/postgres"
	ownershipworkers "compose/contexts/access-control/ownership/application/workers"
	rbac "compose/contexts/access-control/rbac"
	rbacpostgres "compose/contexts/access-control/rbac/adapters/postgres"
	rbacworkers "compose/contexts/access-control/rbac/application/workers"
	"compose/internal/platform/audit"
	"compose/internal/platform/config"
	"compose/internal/platform/db"
	"compose/internal/platform/httpserver"
	"compose/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres       *db.Postgres
	bus            *messaging.Bus
	trail          *audit.Trail
	ownershipRelay ownershipworkers.OutboxRelay
	accessRelay    rbacworkers.OutboxRelay
	pollInterval   time.Duration
	logger         *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	strategy := ownership.StrategyTwoStep
	if !cfg.OwnershipTwoStep {
		strategy = ownership.StrategySingleStep
	}

	ownershipRepo := ownershippostgres.NewRepository(pg.DB, logger)
	if err := ownershipRepo.Migrate(); err != nil {
		return nil, err
	}
	accessRepo := rbacpostgres.NewRepository(pg.DB, logger)
	if err := accessRepo.Migrate(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	now := time.Now().UTC()
	if strategy == ownership.StrategySingleStep {
		if strings.TrimSpace(cfg.OwnershipInitialOwner) == "" {
			return nil, errors.New("OWNERSHIP_INITIAL_OWNER is required for single-step wiring")
		}
		if err := ownershipRepo.Seed(ctx, cfg.OwnershipInitialOwner, now); err != nil {
			return nil, err
		}
	}
	if admin := strings.TrimSpace(cfg.AccessDefaultAdmin); admin != "" {
		if err := accessRepo.Seed(ctx, admin, now); err != nil {
			return nil, err
		}
	}

	ownershipModule := ownership.NewModule(ownership.Dependencies{
		Repository:  ownershipRepo,
		Outbox:      ownershipRepo,
		Publisher:   messaging.NewBus(logger),
		Clock:       ownershippostgres.SystemClock{},
		IDGenerator: ownershippostgres.UUIDGenerator{},
		Strategy:    strategy,
		Logger:      logger,
	})
	accessModule := rbac.NewModule(rbac.Dependencies{
		Repository:     accessRepo,
		Idempotency:    accessRepo,
		Outbox:         accessRepo,
		Publisher:      messaging.NewBus(logger),
		Clock:          rbacpostgres.SystemClock{},
		IDGenerator:    rbacpostgres.UUIDGenerator{},
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	})

	server := httpserver.New(ownershipModule, accessModule, logger, normalizeAddr(cfg.HTTPPort), cfg.JWTSigningKey)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)

	var trail *audit.Trail
	if strings.TrimSpace(cfg.AuditDBPath) != "" {
		trail, err = audit.Open(cfg.AuditDBPath, logger)
		if err != nil {
			return nil, err
		}
	}

	ownershipRepo := ownershippostgres.NewRepository(pg.DB, logger)
	accessRepo := rbacpostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		bus:      bus,
		trail:    trail,
		ownershipRelay: ownershipworkers.OutboxRelay{
			Outbox:    ownershipRepo,
			Publisher: bus,
			Clock:     ownershippostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		accessRelay: rbacworkers.OutboxRelay{
			Outbox:    accessRepo,
			Publisher: bus,
			Clock:     rbacpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.trail != nil {
		if err := w.trail.AttachBus(ctx, w.bus); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.ownershipRelay.RunOnce(ctx); err != nil {
			return err
		}
		if err := w.accessRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.trail != nil {
		errs = append(errs, w.trail.Close())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"compose"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	// AuditDBPath locates the local sqlite audit trail. Empty disables it.
	AuditDBPath string `env:"AUDIT_DB_PATH"`

	// JWTSigningKey verifies bearer tokens on command routes. Empty keys
	// fall back to the development principal header.
	JWTSigningKey string `env:"JWT_SIGNING_KEY"`

	// OwnershipTwoStep selects the transfer protocol wired at the facet.
	OwnershipTwoStep      bool   `env:"OWNERSHIP_TWO_STEP" envDefault:"true"`
	OwnershipInitialOwner string `env:"OWNERSHIP_INITIAL_OWNER"`

	// AccessDefaultAdmin receives DEFAULT_ADMIN_ROLE at bootstrap so the
	// hierarchy has a root before the first grant call.
	AccessDefaultAdmin string `env:"ACCESS_DEFAULT_ADMIN"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

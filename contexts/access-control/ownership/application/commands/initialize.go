package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "compose/contexts/access-control/ownership/application"
	domainerrors "compose/contexts/access-control/ownership/domain/errors"
	"compose/contexts/access-control/ownership/ports"
)

// InitializeCommand contains transport-agnostic input for one-time setup.
type InitializeCommand struct {
	Caller string
}

// InitializeResult reports the seeded owner.
type InitializeResult struct {
	Owner string `json:"owner"`
}

// InitializeUseCase performs the one-time bootstrap of the two-step
// strategy: the first caller becomes owner, every later call is rejected.
type InitializeUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

// Execute validates the caller and seeds the partition exactly once.
func (u InitializeUseCase) Execute(ctx context.Context, cmd InitializeCommand) (InitializeResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.Caller) == "" {
		return InitializeResult{}, domainerrors.ErrInvalidPrincipal
	}

	if err := u.Repository.Initialize(ctx, ports.InitializeInput{
		Owner:         cmd.Caller,
		InitializedAt: u.now(),
	}); err != nil {
		logger.Error("ownership initialize failed",
			"event", "ownership_initialize_failed",
			"module", "access-control/ownership",
			"layer", "application",
			"caller", cmd.Caller,
			"error", err.Error(),
		)
		return InitializeResult{}, err
	}

	logger.Info("ownership initialized",
		"event", "ownership_initialized",
		"module", "access-control/ownership",
		"layer", "application",
		"owner", cmd.Caller,
	)
	return InitializeResult{Owner: cmd.Caller}, nil
}

func (u InitializeUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator satisfies the module IDGenerator port.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

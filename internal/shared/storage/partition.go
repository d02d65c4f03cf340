package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// Package storage isolates each module's persistent state behind a
// namespace-derived partition handle so independently authored modules can
// share one runtime instance without field collisions.

var ErrPartitionClaimed = errors.New("partition already claimed")

// Handle identifies one storage partition. Derived from the namespace by
// hashing, so equal namespaces always resolve to the same handle and
// distinct namespaces never collide in practice.
type Handle [32]byte

// Resolve maps a namespace string to its partition handle.
// Pure and deterministic; no registration step is required.
func Resolve(namespace string) Handle {
	return Handle(sha256.Sum256([]byte(namespace)))
}

func (h Handle) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Space is the typed partition registry shared by a composite system.
// Each module claims its namespace exactly once and receives a region only
// it can reach; the registry never hands the same region to two claimants.
type Space struct {
	mu      sync.Mutex
	regions map[Handle]any
	owners  map[Handle]string
}

func NewSpace() *Space {
	return &Space{
		regions: make(map[Handle]any),
		owners:  make(map[Handle]string),
	}
}

// Claim resolves namespace and allocates its region with init.
// A second claim of the same namespace fails with ErrPartitionClaimed, which
// surfaces colliding module wiring at bootstrap instead of at runtime.
func (s *Space) Claim(namespace string, init func() any) (Handle, any, error) {
	handle := Resolve(namespace)

	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, taken := s.owners[handle]; taken {
		return Handle{}, nil, fmt.Errorf("namespace %q held by %q: %w", namespace, owner, ErrPartitionClaimed)
	}

	region := init()
	s.regions[handle] = region
	s.owners[handle] = namespace
	return handle, region, nil
}

package ownership_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	ownership "compose/contexts/access-control/ownership"
	domainerrors "compose/contexts/access-control/ownership/domain/errors"
	httptransport "compose/contexts/access-control/ownership/transport/http"
	"compose/internal/shared/events"
	"compose/internal/shared/storage"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (p *capturingPublisher) PublishNotification(_ context.Context, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) published() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Envelope(nil), p.events...)
}

func newTwoStepModule(t *testing.T) (ownership.Module, *capturingPublisher) {
	t.Helper()
	publisher := &capturingPublisher{}
	module, err := ownership.NewInMemoryModule(storage.NewSpace(), publisher, ownership.StrategyTwoStep, nil)
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	return module, publisher
}

func TestInitializeOnce(t *testing.T) {
	module, _ := newTwoStepModule(t)
	ctx := context.Background()

	resp, err := module.Handler.InitializeHandler(ctx, "alice")
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if resp.Owner != "alice" {
		t.Fatalf("expected owner alice, got %q", resp.Owner)
	}

	_, err = module.Handler.InitializeHandler(ctx, "bob")
	if !errors.Is(err, domainerrors.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}

	state, err := module.Handler.OwnerHandler(ctx)
	if err != nil {
		t.Fatalf("owner query failed: %v", err)
	}
	if state.Owner != "alice" {
		t.Fatalf("rejected initialize mutated owner: %q", state.Owner)
	}
}

func TestTwoStepTransferKeepsOwnerUntilAccept(t *testing.T) {
	module, _ := newTwoStepModule(t)
	ctx := context.Background()

	if _, err := module.Handler.InitializeHandler(ctx, "alice"); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	resp, err := module.Handler.TransferHandler(ctx, "alice", httptransport.TransferOwnershipRequest{NewOwner: "bob"})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if resp.Owner != "alice" || resp.PendingOwner != "bob" {
		t.Fatalf("expected owner alice / pending bob, got %q / %q", resp.Owner, resp.PendingOwner)
	}

	state, _ := module.Handler.OwnerHandler(ctx)
	if state.Owner != "alice" || state.PendingOwner != "bob" {
		t.Fatalf("ownership changed before accept: %+v", state)
	}
}

func TestOnlyPendingOwnerCanAccept(t *testing.T) {
	module, _ := newTwoStepModule(t)
	ctx := context.Background()

	_, _ = module.Handler.InitializeHandler(ctx, "alice")
	_, _ = module.Handler.TransferHandler(ctx, "alice", httptransport.TransferOwnershipRequest{NewOwner: "bob"})

	_, err := module.Handler.AcceptHandler(ctx, "hacker")
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}
	state, _ := module.Handler.OwnerHandler(ctx)
	if state.Owner != "alice" || state.PendingOwner != "bob" {
		t.Fatalf("failed accept mutated state: %+v", state)
	}

	accepted, err := module.Handler.AcceptHandler(ctx, "bob")
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.PreviousOwner != "alice" || accepted.Owner != "bob" {
		t.Fatalf("unexpected accept result: %+v", accepted)
	}
	state, _ = module.Handler.OwnerHandler(ctx)
	if state.Owner != "bob" || state.PendingOwner != "" {
		t.Fatalf("accept did not settle atomically: %+v", state)
	}
}

func TestAcceptWithNoPendingOwnerFails(t *testing.T) {
	module, _ := newTwoStepModule(t)
	ctx := context.Background()

	_, _ = module.Handler.InitializeHandler(ctx, "alice")
	_, err := module.Handler.AcceptHandler(ctx, "alice")
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount with empty pending owner, got %v", err)
	}
}

func TestTransferRequiresOwner(t *testing.T) {
	module, _ := newTwoStepModule(t)
	ctx := context.Background()

	_, _ = module.Handler.InitializeHandler(ctx, "alice")
	_, err := module.Handler.TransferHandler(ctx, "mallory", httptransport.TransferOwnershipRequest{NewOwner: "mallory"})
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}
}

func TestTransferOverwritesPendingOwner(t *testing.T) {
	module, _ := newTwoStepModule(t)
	ctx := context.Background()

	_, _ = module.Handler.InitializeHandler(ctx, "alice")
	_, _ = module.Handler.TransferHandler(ctx, "alice", httptransport.TransferOwnershipRequest{NewOwner: "bob"})
	resp, err := module.Handler.TransferHandler(ctx, "alice", httptransport.TransferOwnershipRequest{NewOwner: "carol"})
	if err != nil {
		t.Fatalf("second transfer failed: %v", err)
	}
	if resp.PendingOwner != "carol" {
		t.Fatalf("expected pending owner carol, got %q", resp.PendingOwner)
	}

	_, err = module.Handler.AcceptHandler(ctx, "bob")
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("stale pending owner accepted: %v", err)
	}
}

func TestTransferToNobodyCancelsHandshake(t *testing.T) {
	module, _ := newTwoStepModule(t)
	ctx := context.Background()

	_, _ = module.Handler.InitializeHandler(ctx, "alice")
	_, _ = module.Handler.TransferHandler(ctx, "alice", httptransport.TransferOwnershipRequest{NewOwner: "bob"})
	resp, err := module.Handler.TransferHandler(ctx, "alice", httptransport.TransferOwnershipRequest{NewOwner: ""})
	if err != nil {
		t.Fatalf("cancel transfer failed: %v", err)
	}
	if resp.Owner != "alice" || resp.PendingOwner != "" {
		t.Fatalf("cancel did not clear pending owner: %+v", resp)
	}
}

func TestRenounceIsTerminal(t *testing.T) {
	module, _ := newTwoStepModule(t)
	ctx := context.Background()

	_, _ = module.Handler.InitializeHandler(ctx, "alice")
	if _, err := module.Handler.RenounceHandler(ctx, "alice"); err != nil {
		t.Fatalf("renounce failed: %v", err)
	}

	for _, target := range []string{"bob", "alice", ""} {
		_, err := module.Handler.TransferHandler(ctx, "alice", httptransport.TransferOwnershipRequest{NewOwner: target})
		if !errors.Is(err, domainerrors.ErrAlreadyRenounced) {
			t.Fatalf("expected ErrAlreadyRenounced for target %q, got %v", target, err)
		}
	}

	_, err := module.Handler.RenounceHandler(ctx, "alice")
	if !errors.Is(err, domainerrors.ErrAlreadyRenounced) {
		t.Fatalf("expected ErrAlreadyRenounced on double renounce, got %v", err)
	}
}

func TestSingleStepTransferAndRenounce(t *testing.T) {
	publisher := &capturingPublisher{}
	module, err := ownership.NewInMemoryModule(storage.NewSpace(), publisher, ownership.StrategySingleStep, nil)
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	module.Store.Seed("alice")
	ctx := context.Background()

	resp, err := module.Handler.SingleStepTransferHandler(ctx, httptransport.TransferOwnershipRequest{NewOwner: "bob"})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if resp.Owner != "bob" {
		t.Fatalf("expected owner bob, got %q", resp.Owner)
	}

	// none-sentinel target renounces permanently
	if _, err := module.Handler.SingleStepTransferHandler(ctx, httptransport.TransferOwnershipRequest{NewOwner: ""}); err != nil {
		t.Fatalf("renounce transfer failed: %v", err)
	}
	_, err = module.Handler.SingleStepTransferHandler(ctx, httptransport.TransferOwnershipRequest{NewOwner: "carol"})
	if !errors.Is(err, domainerrors.ErrAlreadyRenounced) {
		t.Fatalf("expected ErrAlreadyRenounced, got %v", err)
	}
}

func TestCapabilitySurface(t *testing.T) {
	module, _ := newTwoStepModule(t)
	ctx := context.Background()

	_, _ = module.Handler.InitializeHandler(ctx, "alice")
	owner, err := module.Capability.Owner(ctx)
	if err != nil || owner != "alice" {
		t.Fatalf("capability owner = %q, err %v", owner, err)
	}
	if err := module.Capability.TransferOwnership(ctx, "alice", "bob"); err != nil {
		t.Fatalf("capability transfer failed: %v", err)
	}
	state, _ := module.Handler.OwnerHandler(ctx)
	if state.PendingOwner != "bob" {
		t.Fatalf("capability transfer did not record pending owner: %+v", state)
	}
}

func TestOutboxCommitBeforeNotify(t *testing.T) {
	module, publisher := newTwoStepModule(t)
	ctx := context.Background()

	_, _ = module.Handler.InitializeHandler(ctx, "alice")
	_, _ = module.Handler.TransferHandler(ctx, "alice", httptransport.TransferOwnershipRequest{NewOwner: "bob"})

	// nothing published until the relay runs
	if len(publisher.published()) != 0 {
		t.Fatalf("notification published before relay ran")
	}

	if err := module.Relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	published := publisher.published()
	if len(published) != 1 {
		t.Fatalf("expected 1 published notification, got %d", len(published))
	}
	if published[0].EventType != events.TypeOwnershipTransferStarted {
		t.Fatalf("unexpected event type %q", published[0].EventType)
	}
	if published[0].Partition != storage.Resolve("compose.ownership").String() {
		t.Fatalf("event carries wrong partition %q", published[0].Partition)
	}

	// relay is idempotent over published rows
	if err := module.Relay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(publisher.published()) != 1 {
		t.Fatalf("published rows were relayed twice")
	}
}

func TestFailedGuardLeavesOutboxEmpty(t *testing.T) {
	module, publisher := newTwoStepModule(t)
	ctx := context.Background()

	_, _ = module.Handler.InitializeHandler(ctx, "alice")
	_, err := module.Handler.TransferHandler(ctx, "mallory", httptransport.TransferOwnershipRequest{NewOwner: "mallory"})
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}

	if err := module.Relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published()) != 0 {
		t.Fatalf("failed guard still produced a notification")
	}
}

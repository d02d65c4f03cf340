package rbac_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	rbac "compose/contexts/access-control/rbac"
	"compose/contexts/access-control/rbac/domain/entities"
	domainerrors "compose/contexts/access-control/rbac/domain/errors"
	httptransport "compose/contexts/access-control/rbac/transport/http"
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

func newModule(t *testing.T) (rbac.Module, *capturingPublisher) {
	t.Helper()
	publisher := &capturingPublisher{}
	module, err := rbac.NewInMemoryModule(storage.NewSpace(), publisher, nil)
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	module.Store.Seed("root")
	return module, publisher
}

func grant(t *testing.T, module rbac.Module, key, role, caller, account string) httptransport.GrantRoleResponse {
	t.Helper()
	resp, err := module.Handler.GrantHandler(context.Background(), key, role, caller,
		httptransport.GrantRoleRequest{Account: account})
	if err != nil {
		t.Fatalf("grant %s to %s failed: %v", role, account, err)
	}
	return resp
}

func TestDefaultAdminRoleIsItsOwnAdmin(t *testing.T) {
	module, _ := newModule(t)

	resp, err := module.Handler.RoleAdminHandler(context.Background(), entities.DefaultAdminRole)
	if err != nil {
		t.Fatalf("role admin query failed: %v", err)
	}
	if resp.AdminRole != entities.DefaultAdminRole {
		t.Fatalf("expected default admin role as its own admin, got %q", resp.AdminRole)
	}
}

func TestUnconfiguredRoleFallsBackToDefaultAdmin(t *testing.T) {
	module, _ := newModule(t)

	resp, err := module.Handler.RoleAdminHandler(context.Background(), entities.RoleNamed("MINTER"))
	if err != nil {
		t.Fatalf("role admin query failed: %v", err)
	}
	if resp.AdminRole != entities.DefaultAdminRole {
		t.Fatalf("expected fallback to default admin role, got %q", resp.AdminRole)
	}
}

func TestGrantRevokeRoundTrip(t *testing.T) {
	module, _ := newModule(t)
	ctx := context.Background()
	minter := entities.RoleNamed("MINTER")

	resp := grant(t, module, "k1", minter, "root", "alice")
	if !resp.Granted || resp.Replayed {
		t.Fatalf("expected fresh grant, got %+v", resp)
	}

	has, err := module.Handler.HasRoleHandler(ctx, minter, "alice")
	if err != nil {
		t.Fatalf("has role query failed: %v", err)
	}
	if !has.HasRole {
		t.Fatal("expected alice to hold minter after grant")
	}

	revoked, err := module.Handler.RevokeHandler(ctx, "k2", minter, "root",
		httptransport.RevokeRoleRequest{Account: "alice"})
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if !revoked.Revoked {
		t.Fatalf("expected revoke to flip membership, got %+v", revoked)
	}

	has, err = module.Handler.HasRoleHandler(ctx, minter, "alice")
	if err != nil {
		t.Fatalf("has role query failed: %v", err)
	}
	if has.HasRole {
		t.Fatal("expected alice to lose minter after revoke")
	}
}

func TestGrantRequiresAdminRole(t *testing.T) {
	module, _ := newModule(t)
	minter := entities.RoleNamed("MINTER")

	_, err := module.Handler.GrantHandler(context.Background(), "k1", minter, "mallory",
		httptransport.GrantRoleRequest{Account: "mallory"})
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}

	has, err := module.Handler.HasRoleHandler(context.Background(), minter, "mallory")
	if err != nil {
		t.Fatalf("has role query failed: %v", err)
	}
	if has.HasRole {
		t.Fatal("rejected grant mutated membership")
	}
}

func TestRevokeRequiresAdminRole(t *testing.T) {
	module, _ := newModule(t)
	minter := entities.RoleNamed("MINTER")
	grant(t, module, "k1", minter, "root", "alice")

	_, err := module.Handler.RevokeHandler(context.Background(), "k2", minter, "alice",
		httptransport.RevokeRoleRequest{Account: "alice"})
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}
}

func TestRenounceBypassesAdminGuard(t *testing.T) {
	module, _ := newModule(t)
	ctx := context.Background()
	minter := entities.RoleNamed("MINTER")
	grant(t, module, "k1", minter, "root", "alice")

	resp, err := module.Handler.RenounceHandler(ctx, "k2", minter, "alice",
		httptransport.RenounceRoleRequest{Account: "alice"})
	if err != nil {
		t.Fatalf("renounce failed: %v", err)
	}
	if !resp.Revoked {
		t.Fatalf("expected renounce to flip membership, got %+v", resp)
	}

	has, err := module.Handler.HasRoleHandler(ctx, minter, "alice")
	if err != nil {
		t.Fatalf("has role query failed: %v", err)
	}
	if has.HasRole {
		t.Fatal("expected alice to lose minter after renounce")
	}
}

func TestRenounceRejectsMismatchedConfirmation(t *testing.T) {
	module, _ := newModule(t)
	minter := entities.RoleNamed("MINTER")
	grant(t, module, "k1", minter, "root", "alice")

	_, err := module.Handler.RenounceHandler(context.Background(), "k2", minter, "alice",
		httptransport.RenounceRoleRequest{Account: "bob"})
	if !errors.Is(err, domainerrors.ErrBadConfirmation) {
		t.Fatalf("expected ErrBadConfirmation, got %v", err)
	}
}

func TestRepeatedGrantEmitsNoSecondEvent(t *testing.T) {
	module, publisher := newModule(t)
	ctx := context.Background()
	minter := entities.RoleNamed("MINTER")

	grant(t, module, "k1", minter, "root", "alice")
	second := grant(t, module, "k2", minter, "root", "alice")
	if second.Granted {
		t.Fatalf("expected repeated grant to report no change, got %+v", second)
	}

	if err := module.Relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	var granted int
	for _, event := range publisher.published() {
		if event.EventType == events.TypeRoleGranted {
			granted++
		}
	}
	if granted != 1 {
		t.Fatalf("expected exactly one role-granted event, got %d", granted)
	}
}

func TestIdempotentReplayAndConflict(t *testing.T) {
	module, _ := newModule(t)
	ctx := context.Background()
	minter := entities.RoleNamed("MINTER")

	first := grant(t, module, "k1", minter, "root", "alice")
	if first.Replayed {
		t.Fatalf("first call must not be a replay: %+v", first)
	}

	replay := grant(t, module, "k1", minter, "root", "alice")
	if !replay.Replayed {
		t.Fatalf("expected replay on reused key, got %+v", replay)
	}
	if replay.Granted != first.Granted {
		t.Fatalf("replay must return the recorded result: %+v vs %+v", replay, first)
	}

	_, err := module.Handler.GrantHandler(ctx, "k1", minter, "root",
		httptransport.GrantRoleRequest{Account: "bob"})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}

	_, err = module.Handler.GrantHandler(ctx, "", minter, "root",
		httptransport.GrantRoleRequest{Account: "bob"})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
}

func TestSetRoleAdminReservedToDefaultAdmins(t *testing.T) {
	module, _ := newModule(t)
	ctx := context.Background()
	minter := entities.RoleNamed("MINTER")
	minterAdmin := entities.RoleNamed("MINTER_ADMIN")

	_, err := module.Handler.SetRoleAdminHandler(ctx, "k1", minter, "mallory",
		httptransport.SetRoleAdminRequest{AdminRole: minterAdmin})
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}

	resp, err := module.Handler.SetRoleAdminHandler(ctx, "k2", minter, "root",
		httptransport.SetRoleAdminRequest{AdminRole: minterAdmin})
	if err != nil {
		t.Fatalf("set role admin failed: %v", err)
	}
	if resp.PreviousAdminRole != entities.DefaultAdminRole {
		t.Fatalf("expected previous admin to be the default role, got %q", resp.PreviousAdminRole)
	}
	if resp.AdminRole != minterAdmin {
		t.Fatalf("expected admin role %q, got %q", minterAdmin, resp.AdminRole)
	}
}

func TestAdminResolutionIsOneHop(t *testing.T) {
	module, _ := newModule(t)
	ctx := context.Background()
	minter := entities.RoleNamed("MINTER")
	minterAdmin := entities.RoleNamed("MINTER_ADMIN")

	if _, err := module.Handler.SetRoleAdminHandler(ctx, "k1", minter, "root",
		httptransport.SetRoleAdminRequest{AdminRole: minterAdmin}); err != nil {
		t.Fatalf("set role admin failed: %v", err)
	}
	grant(t, module, "k2", minterAdmin, "root", "alice")

	// alice holds minter's admin role directly, so she may grant minter.
	grant(t, module, "k3", minter, "alice", "bob")

	// root still holds DefaultAdminRole, but resolution is one hop: minter's
	// admin is now minterAdmin, which root does not hold.
	_, err := module.Handler.GrantHandler(ctx, "k4", minter, "root",
		httptransport.GrantRoleRequest{Account: "carol"})
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("expected one-hop resolution to reject root, got %v", err)
	}
}

func TestCheckRoleGuardPrimitive(t *testing.T) {
	module, _ := newModule(t)
	ctx := context.Background()
	minter := entities.RoleNamed("MINTER")
	grant(t, module, "k1", minter, "root", "alice")

	if err := module.CheckRole(ctx, minter, "alice"); err != nil {
		t.Fatalf("expected alice to pass the guard: %v", err)
	}
	err := module.CheckRole(ctx, minter, "bob")
	if !errors.Is(err, domainerrors.ErrUnauthorizedAccount) {
		t.Fatalf("expected ErrUnauthorizedAccount, got %v", err)
	}
	var unauthorized domainerrors.UnauthorizedAccountError
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected typed unauthorized error, got %v", err)
	}
	if unauthorized.Account != "bob" || unauthorized.Role != minter {
		t.Fatalf("unexpected error detail: %+v", unauthorized)
	}
}

func TestInvalidRoleAndAccountRejected(t *testing.T) {
	module, _ := newModule(t)
	ctx := context.Background()

	_, err := module.Handler.GrantHandler(ctx, "k1", "not-a-role", "root",
		httptransport.GrantRoleRequest{Account: "alice"})
	if !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	_, err = module.Handler.GrantHandler(ctx, "k2", entities.RoleNamed("MINTER"), "root",
		httptransport.GrantRoleRequest{Account: "  "})
	if !errors.Is(err, domainerrors.ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestOutboxCommitBeforeNotify(t *testing.T) {
	module, publisher := newModule(t)
	ctx := context.Background()
	minter := entities.RoleNamed("MINTER")

	grant(t, module, "k1", minter, "root", "alice")
	if got := publisher.published(); len(got) != 0 {
		t.Fatalf("expected no events before relay run, got %d", len(got))
	}

	if err := module.Relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	published := publisher.published()
	if len(published) != 1 {
		t.Fatalf("expected one published event, got %d", len(published))
	}
	if published[0].EventType != events.TypeRoleGranted {
		t.Fatalf("unexpected event type %q", published[0].EventType)
	}

	// A second run must not republish the marked row.
	if err := module.Relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay rerun failed: %v", err)
	}
	if got := publisher.published(); len(got) != 1 {
		t.Fatalf("expected relay to skip published rows, got %d events", len(got))
	}
}

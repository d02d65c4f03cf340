package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	ownership "compose/contexts/access-control/ownership"
	rbac "compose/contexts/access-control/rbac"
	"compose/contexts/access-control/rbac/domain/entities"
	"compose/internal/platform/messaging"
	"compose/internal/shared/storage"
)

func newTestServer(t *testing.T, strategy ownership.Strategy, jwtKey string) *Server {
	t.Helper()
	space := storage.NewSpace()
	bus := messaging.NewBus(nil)

	ownershipModule, err := ownership.NewInMemoryModule(space, bus, strategy, nil)
	if err != nil {
		t.Fatalf("build ownership module: %v", err)
	}
	if strategy == ownership.StrategySingleStep {
		ownershipModule.Store.Seed("alice")
	}

	accessModule, err := rbac.NewInMemoryModule(space, bus, nil)
	if err != nil {
		t.Fatalf("build access module: %v", err)
	}
	accessModule.Store.Seed("root")

	return New(ownershipModule, accessModule, nil, ":0", jwtKey)
}

func decodeErrorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Code
}

func TestCommandRoutesRequirePrincipal(t *testing.T) {
	server := newTestServer(t, ownership.StrategyTwoStep, "")

	for _, route := range []string{
		"/api/ownership/v1/initialize",
		"/api/ownership/v1/transfer",
		"/api/ownership/v1/accept",
		"/api/ownership/v1/renounce",
	} {
		req := httptest.NewRequest(http.MethodPost, route, bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d body=%s", route, rr.Code, rr.Body.String())
		}
	}
}

func TestUnauthorizedGrantMapsToForbidden(t *testing.T) {
	server := newTestServer(t, ownership.StrategyTwoStep, "")
	role := entities.RoleNamed("MINTER")

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/access/v1/roles/"+role+"/grant",
		bytes.NewReader([]byte(`{"account":"mallory"}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Principal-Id", "mallory")
	req.Header.Set("Idempotency-Key", "grant-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeErrorCode(t, rr.Body); code != "unauthorized_account" {
		t.Fatalf("expected unauthorized_account code, got %q", code)
	}
}

func TestGrantWithoutIdempotencyKeyRejected(t *testing.T) {
	server := newTestServer(t, ownership.StrategyTwoStep, "")
	role := entities.RoleNamed("MINTER")

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/access/v1/roles/"+role+"/grant",
		bytes.NewReader([]byte(`{"account":"alice"}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Principal-Id", "root")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeErrorCode(t, rr.Body); code != "idempotency_key_required" {
		t.Fatalf("expected idempotency_key_required code, got %q", code)
	}
}

func TestDoubleInitializeMapsToConflict(t *testing.T) {
	server := newTestServer(t, ownership.StrategyTwoStep, "")

	first := httptest.NewRequest(http.MethodPost, "/api/ownership/v1/initialize", nil)
	first.Header.Set("X-Principal-Id", "alice")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, first)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	second := httptest.NewRequest(http.MethodPost, "/api/ownership/v1/initialize", nil)
	second.Header.Set("X-Principal-Id", "bob")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, second)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeErrorCode(t, rr.Body); code != "already_initialized" {
		t.Fatalf("expected already_initialized code, got %q", code)
	}
}

func TestSingleStepWiringDropsHandshakeRoutes(t *testing.T) {
	server := newTestServer(t, ownership.StrategySingleStep, "")

	for _, route := range []string{
		"/api/ownership/v1/initialize",
		"/api/ownership/v1/accept",
	} {
		req := httptest.NewRequest(http.MethodPost, route, nil)
		req.Header.Set("X-Principal-Id", "alice")

		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", route, rr.Code)
		}
	}
}

func TestSingleStepTransferGatedByOwnerAtRoute(t *testing.T) {
	server := newTestServer(t, ownership.StrategySingleStep, "")

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/ownership/v1/transfer",
		bytes.NewReader([]byte(`{"new_owner":"mallory"}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Principal-Id", "mallory")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(
		http.MethodPost,
		"/api/ownership/v1/transfer",
		bytes.NewReader([]byte(`{"new_owner":"bob"}`)),
	)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Principal-Id", "alice")

	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestBearerTokenCarriesPrincipal(t *testing.T) {
	const key = "test-signing-key"
	server := newTestServer(t, ownership.StrategyTwoStep, key)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).
		SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ownership/v1/initialize", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Owner string `json:"owner"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Owner != "alice" {
		t.Fatalf("expected token subject as owner, got %q", resp.Owner)
	}
}

func TestForgedTokenRejected(t *testing.T) {
	server := newTestServer(t, ownership.StrategyTwoStep, "test-signing-key")

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).
		SignedString([]byte("wrong-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ownership/v1/initialize", nil)
	req.Header.Set("Authorization", "Bearer "+forged)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

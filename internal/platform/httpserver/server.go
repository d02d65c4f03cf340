package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	ownership "compose/contexts/access-control/ownership"
	ownershipentities "compose/contexts/access-control/ownership/domain/entities"
	ownershiperrors "compose/contexts/access-control/ownership/domain/errors"
	ownershiphttp "compose/contexts/access-control/ownership/transport/http"
	rbac "compose/contexts/access-control/rbac"
	accesserrors "compose/contexts/access-control/rbac/domain/errors"
	accesshttp "compose/contexts/access-control/rbac/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "compose/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	jwtKey    string
	ownership ownership.Module
	access    rbac.Module
}

func New(
	ownershipModule ownership.Module,
	accessModule rbac.Module,
	logger *slog.Logger,
	addr string,
	jwtKey string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		jwtKey:    jwtKey,
		ownership: ownershipModule,
		access:    accessModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
		"ownership_strategy", string(s.ownership.Strategy),
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /api/ownership/v1/owner", s.handleOwner)
	s.mux.HandleFunc("POST /api/ownership/v1/renounce", s.handleRenounceOwnership)

	// Single-step wiring drops the handshake routes entirely; the mux
	// answers 404 for initialize/accept, matching a facet that never cut
	// those entry points.
	if s.ownership.Strategy == ownership.StrategySingleStep {
		s.mux.HandleFunc("POST /api/ownership/v1/transfer", s.handleSingleStepTransfer)
	} else {
		s.mux.HandleFunc("POST /api/ownership/v1/initialize", s.handleInitializeOwnership)
		s.mux.HandleFunc("POST /api/ownership/v1/transfer", s.handleTransferOwnership)
		s.mux.HandleFunc("POST /api/ownership/v1/accept", s.handleAcceptOwnership)
	}

	s.mux.HandleFunc("GET /api/access/v1/roles/{role}/members/{account}", s.handleHasRole)
	s.mux.HandleFunc("GET /api/access/v1/roles/{role}/admin", s.handleRoleAdmin)
	s.mux.HandleFunc("POST /api/access/v1/roles/{role}/grant", s.handleGrantRole)
	s.mux.HandleFunc("POST /api/access/v1/roles/{role}/revoke", s.handleRevokeRole)
	s.mux.HandleFunc("POST /api/access/v1/roles/{role}/renounce", s.handleRenounceRole)
	s.mux.HandleFunc("POST /api/access/v1/roles/{role}/admin", s.handleSetRoleAdmin)
}

func (s *Server) handleOwner(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ownership.Handler.OwnerHandler(r.Context())
	if err != nil {
		writeOwnershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInitializeOwnership(w http.ResponseWriter, r *http.Request) {
	caller, err := s.resolvePrincipal(r)
	if err != nil {
		writeOwnershipError(w, http.StatusUnauthorized, "missing_principal", "caller principal is required")
		return
	}
	resp, err := s.ownership.Handler.InitializeHandler(r.Context(), caller)
	if err != nil {
		writeOwnershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	caller, err := s.resolvePrincipal(r)
	if err != nil {
		writeOwnershipError(w, http.StatusUnauthorized, "missing_principal", "caller principal is required")
		return
	}

	var req ownershiphttp.TransferOwnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOwnershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ownership.Handler.TransferHandler(r.Context(), caller, req)
	if err != nil {
		writeOwnershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSingleStepTransfer gates the unchecked module operation with the
// owner comparison at the entry point, the way a composite system wraps it.
func (s *Server) handleSingleStepTransfer(w http.ResponseWriter, r *http.Request) {
	caller, err := s.resolvePrincipal(r)
	if err != nil {
		writeOwnershipError(w, http.StatusUnauthorized, "missing_principal", "caller principal is required")
		return
	}

	owner, err := s.ownership.Capability.Owner(r.Context())
	if err != nil {
		writeOwnershipDomainError(w, err)
		return
	}
	if owner == ownershipentities.Nobody {
		writeOwnershipDomainError(w, ownershiperrors.ErrAlreadyRenounced)
		return
	}
	if caller != owner {
		writeOwnershipDomainError(w, ownershiperrors.UnauthorizedAccountError{Account: caller})
		return
	}

	var req ownershiphttp.TransferOwnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOwnershipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ownership.Handler.SingleStepTransferHandler(r.Context(), req)
	if err != nil {
		writeOwnershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptOwnership(w http.ResponseWriter, r *http.Request) {
	caller, err := s.resolvePrincipal(r)
	if err != nil {
		writeOwnershipError(w, http.StatusUnauthorized, "missing_principal", "caller principal is required")
		return
	}
	resp, err := s.ownership.Handler.AcceptHandler(r.Context(), caller)
	if err != nil {
		writeOwnershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRenounceOwnership(w http.ResponseWriter, r *http.Request) {
	caller, err := s.resolvePrincipal(r)
	if err != nil {
		writeOwnershipError(w, http.StatusUnauthorized, "missing_principal", "caller principal is required")
		return
	}
	resp, err := s.ownership.Handler.RenounceHandler(r.Context(), caller)
	if err != nil {
		writeOwnershipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHasRole(w http.ResponseWriter, r *http.Request) {
	resp, err := s.access.Handler.HasRoleHandler(r.Context(), r.PathValue("role"), r.PathValue("account"))
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoleAdmin(w http.ResponseWriter, r *http.Request) {
	resp, err := s.access.Handler.RoleAdminHandler(r.Context(), r.PathValue("role"))
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	caller, err := s.resolvePrincipal(r)
	if err != nil {
		writeAccessError(w, http.StatusUnauthorized, "missing_principal", "caller principal is required")
		return
	}

	var req accesshttp.GrantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.access.Handler.GrantHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		r.PathValue("role"),
		caller,
		req,
	)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	caller, err := s.resolvePrincipal(r)
	if err != nil {
		writeAccessError(w, http.StatusUnauthorized, "missing_principal", "caller principal is required")
		return
	}

	var req accesshttp.RevokeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.access.Handler.RevokeHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		r.PathValue("role"),
		caller,
		req,
	)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRenounceRole(w http.ResponseWriter, r *http.Request) {
	caller, err := s.resolvePrincipal(r)
	if err != nil {
		writeAccessError(w, http.StatusUnauthorized, "missing_principal", "caller principal is required")
		return
	}

	var req accesshttp.RenounceRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.access.Handler.RenounceHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		r.PathValue("role"),
		caller,
		req,
	)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetRoleAdmin(w http.ResponseWriter, r *http.Request) {
	caller, err := s.resolvePrincipal(r)
	if err != nil {
		writeAccessError(w, http.StatusUnauthorized, "missing_principal", "caller principal is required")
		return
	}

	var req accesshttp.SetRoleAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.access.Handler.SetRoleAdminHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		r.PathValue("role"),
		caller,
		req,
	)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeOwnershipDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ownershiperrors.ErrAlreadyInitialized):
		writeOwnershipError(w, http.StatusConflict, "already_initialized", err.Error())
	case errors.Is(err, ownershiperrors.ErrAlreadyRenounced):
		writeOwnershipError(w, http.StatusConflict, "already_renounced", err.Error())
	case errors.Is(err, ownershiperrors.ErrUnauthorizedAccount):
		writeOwnershipError(w, http.StatusForbidden, "unauthorized_account", err.Error())
	case errors.Is(err, ownershiperrors.ErrInvalidPrincipal):
		writeOwnershipError(w, http.StatusBadRequest, "invalid_principal", err.Error())
	default:
		writeOwnershipError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAccessDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accesserrors.ErrUnauthorizedAccount):
		writeAccessError(w, http.StatusForbidden, "unauthorized_account", err.Error())
	case errors.Is(err, accesserrors.ErrBadConfirmation):
		writeAccessError(w, http.StatusForbidden, "bad_confirmation", err.Error())
	case errors.Is(err, accesserrors.ErrInvalidRole),
		errors.Is(err, accesserrors.ErrInvalidAccount):
		writeAccessError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, accesserrors.ErrIdempotencyKeyRequired):
		writeAccessError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, accesserrors.ErrIdempotencyConflict):
		writeAccessError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeAccessError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeOwnershipError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ownershiphttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeAccessError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, accesshttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package httptransport

// HasRoleResponse is the pure membership read.
type HasRoleResponse struct {
	Role    string `json:"role"`
	Account string `json:"account"`
	HasRole bool   `json:"has_role"`
}

// RoleAdminResponse reports the one-hop admin pointer for a role.
type RoleAdminResponse struct {
	Role      string `json:"role"`
	AdminRole string `json:"admin_role"`
}

// GrantRoleRequest names the account receiving the role.
type GrantRoleRequest struct {
	Account string `json:"account"`
}

// GrantRoleResponse reports whether the membership bit actually flipped.
type GrantRoleResponse struct {
	Role     string `json:"role"`
	Account  string `json:"account"`
	Granted  bool   `json:"granted"`
	Replayed bool   `json:"replayed"`
}

// RevokeRoleRequest names the account losing the role.
type RevokeRoleRequest struct {
	Account string `json:"account"`
}

// RevokeRoleResponse reports whether the membership bit actually flipped.
type RevokeRoleResponse struct {
	Role     string `json:"role"`
	Account  string `json:"account"`
	Revoked  bool   `json:"revoked"`
	Replayed bool   `json:"replayed"`
}

// RenounceRoleRequest repeats the caller's own account as an explicit
// confirmation of the self-service revoke.
type RenounceRoleRequest struct {
	Account string `json:"account"`
}

// RenounceRoleResponse mirrors RevokeRoleResponse for the self-service path.
type RenounceRoleResponse struct {
	Role     string `json:"role"`
	Account  string `json:"account"`
	Revoked  bool   `json:"revoked"`
	Replayed bool   `json:"replayed"`
}

// SetRoleAdminRequest names the new admin role for a role.
type SetRoleAdminRequest struct {
	AdminRole string `json:"admin_role"`
}

// SetRoleAdminResponse reports the pointer update.
type SetRoleAdminResponse struct {
	Role              string `json:"role"`
	PreviousAdminRole string `json:"previous_admin_role"`
	AdminRole         string `json:"admin_role"`
	Replayed          bool   `json:"replayed"`
}

// ErrorResponse is the module's HTTP failure shape.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

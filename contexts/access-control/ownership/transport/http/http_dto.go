package httptransport

// OwnershipResponse reports the current ownership state.
type OwnershipResponse struct {
	Initialized  bool   `json:"initialized"`
	Owner        string `json:"owner"`
	PendingOwner string `json:"pending_owner"`
}

// InitializeResponse reports the seeded owner.
type InitializeResponse struct {
	Owner string `json:"owner"`
}

// TransferOwnershipRequest names the transfer destination. An empty
// new_owner cancels a pending two-step handshake, or renounces outright
// under the single-step strategy.
type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

// TransferOwnershipResponse reports the state after the transfer call.
type TransferOwnershipResponse struct {
	Owner        string `json:"owner"`
	PendingOwner string `json:"pending_owner"`
}

// AcceptOwnershipResponse reports the completed handshake.
type AcceptOwnershipResponse struct {
	PreviousOwner string `json:"previous_owner"`
	Owner         string `json:"owner"`
}

// RenounceOwnershipResponse reports the terminal transition.
type RenounceOwnershipResponse struct {
	PreviousOwner string `json:"previous_owner"`
}

// ErrorResponse is the module's HTTP failure shape.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

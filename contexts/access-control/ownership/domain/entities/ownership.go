package entities

// Nobody is the none-sentinel for principal identifiers. An ownership state
// whose owner equals Nobody after initialization is permanently renounced.
const Nobody = ""

// Ownership is the module's partitioned state.
// Field order is part of the upgrade compatibility surface: append new
// fields, never reorder or remove existing ones.
type Ownership struct {
	Initialized  bool   `json:"initialized"`
	Owner        string `json:"owner"`
	PendingOwner string `json:"pending_owner"`
}

// Renounced reports whether ownership was permanently relinquished.
// No transition leaves this state.
func (o Ownership) Renounced() bool {
	return o.Initialized && o.Owner == Nobody
}

// TransferPending reports whether a two-step handshake is in flight.
func (o Ownership) TransferPending() bool {
	return o.PendingOwner != Nobody
}

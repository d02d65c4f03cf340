// Package ownership implements the ownership module of the compose
// access-control context.
//
// Two mutually exclusive transfer strategies live behind one capability
// port: a single-step reassignment with no pending state, and the two-step
// owner -> pending-owner -> owner handshake that requires the destination
// to actively claim ownership before it takes effect.
//
// Layering:
// - domain: ownership state, invariants, errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence/outbox/events
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - State lives only in the module's own storage partition
//   (compose.ownership); no other module reaches into it.
// - Notifications are committed to the outbox with the state change and
//   published afterwards by the relay worker, never inside the mutation.
package ownership

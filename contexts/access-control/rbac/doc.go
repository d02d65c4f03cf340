// Package rbac implements the role-based access-control module of the
// compose access-control context.
//
// The state is a flat relation: role membership per (account, role) pair
// and a one-hop admin-role pointer per role. Admin resolution never walks a
// chain; a role hierarchy is whatever the composite system's wiring makes
// of the per-role pointers. DefaultAdminRole administers itself and every
// role without an explicit admin.
//
// Layering:
// - domain: role identifiers, invariants, errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence/outbox/events
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - State lives only in the module's own storage partition
//   (compose.access_control).
// - CheckRole is the single authorization choke-point; every privileged
//   operation in a consuming facet routes through it.
package rbac

// Package api implements the HTTP REST API and WebSocket event stream for
// the diagnostics simulator.
//
// This package provides:
//   - REST endpoints over the entity tree: data resources, faults, locks,
//     operations and modes
//   - WebSocket hub that relays simulation events to subscribed clients
//   - Audit trail and system metrics endpoints
//   - Middleware stack (request ID, logging, metrics, recovery, CORS, body limit)
//
// Mutating requests carry the lock token in the X-Lock-Token header. Domain
// errors map to HTTP statuses in errors.go.
package api

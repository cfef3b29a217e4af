// Package learning runs the capture state machine for teaching the
// bridge new IR commands.
//
// # Session lifecycle
//
//	(absent) --Start--> armed --capture--> succeeded
//	                      |------error---> failed
//	                      |-----deadline-> timed_out
//	                      |------Cancel--> cancelled
//
// All four right-hand states are terminal. Terminal transitions are
// idempotent: the first one to land wins, so a delayed capture arriving
// after a timeout cannot overwrite the outcome.
//
// The Registry enforces the package's central invariant: at most one
// non-terminal session per device, serialized by a per-device critical
// section so concurrent Start calls for unrelated devices never contend.
//
// Terminal sessions remain queryable until explicitly discarded, which
// the coordinator does after saving a captured code or acknowledging a
// failure. A fresh Start is accepted as soon as the prior session is
// terminal.
//
// # Broadcasting
//
// The Broadcaster fans state-change events out to subscribers, per
// device or globally. Delivery never blocks session processing: each
// subscriber has a bounded buffer with drop-oldest overflow.
package learning

// Package coordinator is the top-level façade over the IR subsystem.
//
// It composes the device inventory, per-device command libraries, the
// bus bridge and the learning registry behind one API: list and manage
// devices, dispatch stored commands, run learning sessions, and move
// libraries in and out of the interchange format.
//
// Two background flows run while the coordinator is started:
//
//   - Availability announcements from the bus update the device
//     inventory and, when telemetry is enabled, the measurement store.
//   - Learning session events are mirrored onto the bridge-owned bus
//     topics ("irbridge/core/learning/{device}") so external observers
//     can follow sessions without the HTTP API.
//
// All collaborators are injected through Deps; the package holds no
// globals.
package coordinator

// Package bridge is the sole I/O edge between the coordination layer and
// the physical IR blasters on the message bus.
//
// It translates three device-level operations into the Zigbee2MQTT wire
// format:
//
//   - Send publishes {"ir_code_to_send": "..."} to "{base}/{device}/set".
//   - ArmCapture publishes {"learn_ir_code": true} and watches the
//     device's state topic for a {"learned_ir_code": "..."} report,
//     delivering exactly one result per armed capture.
//   - WatchAvailability subscribes to "{base}/+/availability" and
//     forwards online/offline announcements.
//
// The bridge enforces no session semantics. Exclusivity of armed
// captures per device belongs to the learning registry; the bridge
// simply arms, disarms and relays.
package bridge

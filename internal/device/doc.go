// Package device manages the inventory of IR blasters known to the bridge.
//
// Each device is a physical IR transceiver reachable over the message bus
// under "{base_topic}/{topic}". The package stores identity and remote
// metadata (manufacturer, supported models, controller) alongside
// availability tracking driven by the bus.
//
// # Architecture
//
//	Registry (cached, thread-safe)
//	    |
//	Repository (interface)
//	    |
//	SQLiteRepository (persistence)
//
// The Registry serves all reads from an in-memory cache and returns deep
// copies, so callers can never mutate cached state. Writes hit the
// repository first and update the cache only on success.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB())
//	registry, err := device.NewRegistry(ctx, repo, logger)
//	if err != nil {
//	    return err
//	}
//
//	d, err := registry.Create(ctx, &device.Device{
//	    Name:         "Lounge AC Blaster",
//	    Topic:        "lounge_ir",
//	    Manufacturer: "MOES",
//	})
package device

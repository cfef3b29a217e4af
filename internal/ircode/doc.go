// Package ircode owns per-device infrared command libraries.
//
// A library maps (category, command name) to an IR code record. Codes
// are opaque Base64 blobs captured from remote controls, seeded from an
// embedded factory dataset, or imported from interchange documents.
//
// # Architecture
//
//	Store (cached, thread-safe, per-device libraries)
//	    |
//	Repository (interface)
//	    |
//	SQLiteRepository (persistence)
//
// Libraries load lazily on first reference to a device. All mutations
// (Put, DeleteAll, Import, Seed) are atomic with respect to concurrent
// reads.
//
// # Categories
//
// Command categories form a closed set: power, temperature, mode, fan,
// swing, timer and custom. Anything else is rejected with
// ErrInvalidCategory.
//
// # Interchange format
//
// Export and Import speak the SmartIR JSON schema: manufacturer,
// supportedModels, supportedController, commandsEncoding, a temperature
// map keyed by integer degree, and an operations block with power and
// mode entries. Field names are bit-exact for ecosystem compatibility.
//
// # Provenance
//
// Every stored code carries a provenance tag: built-in (factory
// dataset), learned (captured via a learning session) or imported.
// Seeding never overwrites learned or imported entries.
package ircode

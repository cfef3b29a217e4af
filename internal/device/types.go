package device

import "time"

// Device represents a single IR blaster known to the bridge.
type Device struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`

	// Topic is the device's friendly name on the message bus.
	// The full bus topic is "{base_topic}/{topic}".
	Topic string `json:"topic"`

	// Remote metadata, carried into library exports.
	Manufacturer    string   `json:"manufacturer"`
	SupportedModels []string `json:"supported_models,omitempty"`

	// Controller names the transmitting integration in exported documents.
	Controller string `json:"controller"`

	// Availability tracking from the bus.
	Availability Availability `json:"availability"`
	LastSeen     *time.Time   `json:"last_seen,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates a complete independent copy of the Device.
// Slice fields are cloned so modifications to the copy do not affect
// the original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.SupportedModels != nil {
		cpy.SupportedModels = make([]string, len(d.SupportedModels))
		copy(cpy.SupportedModels, d.SupportedModels)
	}

	if d.LastSeen != nil {
		ts := *d.LastSeen
		cpy.LastSeen = &ts
	}

	return &cpy
}

// Availability represents the last reported bus availability of a device.
type Availability string

// Availability constants.
const (
	AvailabilityOnline  Availability = "online"
	AvailabilityOffline Availability = "offline"
	AvailabilityUnknown Availability = "unknown"
)

// AllAvailabilities returns all valid availability values.
func AllAvailabilities() []Availability {
	return []Availability{AvailabilityOnline, AvailabilityOffline, AvailabilityUnknown}
}

// DefaultController is the controller recorded on new devices when the
// caller does not supply one.
const DefaultController = "MQTT"

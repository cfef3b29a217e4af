package mqtt

import "fmt"

// Topic prefixes for bridge-owned topics.
//
// Device topics live under the configurable base topic (Zigbee2MQTT style):
//
//	{base}/{device_topic}              state and learned code reports
//	{base}/{device_topic}/set          commands to the blaster
//	{base}/{device_topic}/availability online/offline reports
//
// Bridge-owned topics are fixed under the irbridge prefix.
const (
	// TopicPrefixCore is the base for core event topics.
	TopicPrefixCore = "irbridge/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "irbridge/system"
)

// Topics provides builders for MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{Base: "zigbee2mqtt"}
//	cmdTopic := topics.DeviceSet("ir-lounge")
//	// Returns: "zigbee2mqtt/ir-lounge/set"
type Topics struct {
	// Base is the broker-side prefix under which devices publish.
	// Empty Base is only valid for the fixed irbridge topics.
	Base string
}

// DeviceState returns the topic a device reports state and learned codes on.
//
// Example: zigbee2mqtt/ir-lounge
func (t Topics) DeviceState(deviceTopic string) string {
	return fmt.Sprintf("%s/%s", t.Base, deviceTopic)
}

// DeviceSet returns the command topic for a device.
//
// Example: zigbee2mqtt/ir-lounge/set
func (t Topics) DeviceSet(deviceTopic string) string {
	return fmt.Sprintf("%s/%s/set", t.Base, deviceTopic)
}

// DeviceAvailability returns the availability topic for a device.
//
// Example: zigbee2mqtt/ir-lounge/availability
func (t Topics) DeviceAvailability(deviceTopic string) string {
	return fmt.Sprintf("%s/%s/availability", t.Base, deviceTopic)
}

// AllAvailability returns a pattern matching every device availability topic.
//
// Pattern: zigbee2mqtt/+/availability
func (t Topics) AllAvailability() string {
	return fmt.Sprintf("%s/+/availability", t.Base)
}

// CoreLearning returns the topic learning session events are mirrored on.
//
// Example: irbridge/core/learning/dev-a1b2c3d4
func (Topics) CoreLearning(deviceID string) string {
	return fmt.Sprintf("%s/learning/%s", TopicPrefixCore, deviceID)
}

// CoreDeviceEvent returns the topic for device lifecycle events.
//
// Example: irbridge/core/device/dev-a1b2c3d4/event
func (Topics) CoreDeviceEvent(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/event", TopicPrefixCore, deviceID)
}

// SystemStatus returns the system status topic (also used for the LWT).
//
// Example: irbridge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

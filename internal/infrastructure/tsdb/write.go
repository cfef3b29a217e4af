package tsdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCommandDispatch records an IR command transmission.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Device identifier (e.g., "dev-a1b2c3d4")
//   - category: Command category (e.g., "temperature")
//   - name: Command name within the category (e.g., "22")
//   - ok: Whether the publish to the bus succeeded
func (c *Client) WriteCommandDispatch(deviceID, category, name string, ok bool) {
	if !c.IsConnected() {
		return
	}

	success := 0.0
	if ok {
		success = 1.0
	}

	point := write.NewPoint(
		"ir_command",
		map[string]string{
			"device_id": deviceID,
			"category":  category,
			"command":   name,
		},
		map[string]interface{}{
			"sent":    1.0,
			"success": success,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSessionOutcome records the terminal state of a learning session.
//
// Parameters:
//   - deviceID: Device identifier
//   - state: Terminal session state (succeeded, failed, timed_out, cancelled)
//   - duration: Time from arming to the terminal transition
func (c *Client) WriteSessionOutcome(deviceID, state string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"learning_session",
		map[string]string{
			"device_id": deviceID,
			"state":     state,
		},
		map[string]interface{}{
			"count":       1.0,
			"duration_ms": float64(duration.Milliseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAvailability records a device availability transition.
//
// Parameters:
//   - deviceID: Device identifier
//   - online: true for online, false for offline
func (c *Client) WriteAvailability(deviceID string, online bool) {
	if !c.IsConnected() {
		return
	}

	value := 0.0
	if online {
		value = 1.0
	}

	point := write.NewPoint(
		"device_availability",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"online": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

package tsdb

import "errors"

// Domain-specific errors for time-series operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDisabled is returned when connecting while InfluxDB is disabled in config.
	ErrDisabled = errors.New("tsdb: influxdb is disabled")

	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("tsdb: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("tsdb: connection failed")
)

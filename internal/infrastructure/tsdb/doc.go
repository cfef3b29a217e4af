// Package tsdb provides time-series telemetry for IR Bridge Core.
//
// This package manages:
//   - Connection to InfluxDB v2 with token authentication
//   - Non-blocking, batched metric writes
//   - Health monitoring
//
// Telemetry is optional; when influxdb.enabled is false the rest of the
// system runs without it and callers hold a nil *Client.
//
// # Measurements
//
//   - ir_command: one point per transmitted IR command
//   - learning_session: one point per terminal session transition
//   - device_availability: online/offline transitions
//
// # Usage
//
//	client, err := tsdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteCommandDispatch("dev-a1b2", "power", "on", true)
package tsdb

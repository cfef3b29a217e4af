// Package mqtt provides MQTT client connectivity for IR Bridge Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge reaches IR blaster devices through their Zigbee-to-MQTT
// gateway. The broker decouples the bridge from the radio-side
// implementation.
//
//	IR Bridge Core ↔ MQTT Broker ↔ Zigbee2MQTT ↔ IR blasters
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Base: cfg.MQTT.BaseTopic}
//
//	// Watch device availability
//	err = client.Subscribe(topics.AllAvailability(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Transmit an IR code
//	client.Publish(topics.DeviceSet("ir-lounge"), []byte(`{"ir_code_to_send":"..."}`), 1, false)
package mqtt

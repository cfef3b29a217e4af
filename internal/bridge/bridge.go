package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/irbridge-core/internal/infrastructure/mqtt"
)

// MQTTClient is the transport interface the bridge requires. Satisfied
// by *mqtt.Client; mocked in tests.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Logger is a minimal logging interface so the bridge does not depend on
// a concrete logging implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// transmitMessage is the outbound wire format understood by the blaster
// firmware. Field names are fixed by the device.
type transmitMessage struct {
	IRCodeToSend string `json:"ir_code_to_send"`
}

// learnRequest arms the device's capture mode.
type learnRequest struct {
	LearnIRCode bool `json:"learn_ir_code"`
}

// captureReport is the inbound state message carrying a freshly captured
// code. Devices that report signal metadata include the optional fields.
type captureReport struct {
	LearnedIRCode string `json:"learned_ir_code"`
	Protocol      string `json:"protocol,omitempty"`
	Bits          int    `json:"bits,omitempty"`
	Frequency     int    `json:"frequency,omitempty"`
}

// CaptureResult is the single outcome of an armed capture.
type CaptureResult struct {
	Code      string
	Protocol  string
	Bits      int
	Frequency int
	Err       error
}

// Capture is a handle on an armed capture request. Exactly one result is
// delivered on C. Cancel releases the underlying subscription and is
// safe to call more than once, including after the capture fired.
type Capture struct {
	C <-chan CaptureResult

	cancelOnce sync.Once
	fireOnce   sync.Once
	results    chan CaptureResult
	unsub      func()
}

// NewCapture assembles a capture handle around an external result
// source. The returned fire function delivers at most one result; cancel
// runs once on Cancel. Lets alternate transports and tests drive capture
// consumers without a live broker.
func NewCapture(cancel func()) (*Capture, func(CaptureResult)) {
	if cancel == nil {
		cancel = func() {}
	}
	c := &Capture{
		results: make(chan CaptureResult, 1),
		unsub:   cancel,
	}
	c.C = c.results
	return c, c.fire
}

// fire delivers the capture result. Later calls are no-ops, so a racing
// cancel and in-flight report resolve to whichever lands first.
func (c *Capture) fire(result CaptureResult) {
	c.fireOnce.Do(func() {
		c.results <- result
	})
}

// Cancel disarms a still-pending capture. A no-op if the capture has
// already fired.
func (c *Capture) Cancel() {
	c.cancelOnce.Do(c.unsub)
}

// Bridge translates device-level operations into bus messages. It is the
// sole I/O edge to the physical blasters.
//
// One Bridge serves all devices over a shared transport connection.
// Operations on unrelated devices never serialize against each other;
// the only shared state is the client's own subscription table.
type Bridge struct {
	client MQTTClient
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// New creates a Bridge over an established transport client.
func New(client MQTTClient, topics mqtt.Topics, qos byte, logger Logger) *Bridge {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bridge{
		client: client,
		topics: topics,
		qos:    qos,
		logger: logger,
	}
}

// Send publishes a transmit message carrying the encoded IR payload to
// the device's command topic.
func (b *Bridge) Send(deviceTopic, payload string) error {
	if !b.client.IsConnected() {
		return ErrBridgeUnavailable
	}

	msg, err := json.Marshal(transmitMessage{IRCodeToSend: payload})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	if err := b.client.Publish(b.topics.DeviceSet(deviceTopic), msg, b.qos, false); err != nil {
		return wrapTransportError(err)
	}

	b.logger.Debug("transmit published", "topic", deviceTopic)
	return nil
}

// ArmCapture puts a device into learning mode and returns a handle that
// yields exactly one captured-code event.
//
// The returned Capture's channel receives the first capture report seen
// on the device's state topic. Callers must Cancel the handle once done,
// whether or not a result arrived, to release the subscription.
func (b *Bridge) ArmCapture(deviceTopic string) (*Capture, error) {
	if !b.client.IsConnected() {
		return nil, ErrBridgeUnavailable
	}

	stateTopic := b.topics.DeviceState(deviceTopic)
	capture, fire := NewCapture(func() {
		if err := b.client.Unsubscribe(stateTopic); err != nil {
			b.logger.Warn("capture unsubscribe failed",
				"topic", deviceTopic, "error", err)
		}
	})

	handler := func(_ string, payload []byte) error {
		var report captureReport
		if err := json.Unmarshal(payload, &report); err != nil {
			// Routine state chatter on the same topic. Not a capture.
			return nil
		}
		if report.LearnedIRCode == "" {
			return nil
		}

		fire(CaptureResult{
			Code:      report.LearnedIRCode,
			Protocol:  report.Protocol,
			Bits:      report.Bits,
			Frequency: report.Frequency,
		})
		return nil
	}

	if err := b.client.Subscribe(stateTopic, b.qos, handler); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	msg, err := json.Marshal(learnRequest{LearnIRCode: true})
	if err != nil {
		capture.Cancel()
		return nil, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	if err := b.client.Publish(b.topics.DeviceSet(deviceTopic), msg, b.qos, false); err != nil {
		capture.Cancel()
		return nil, wrapTransportError(err)
	}

	b.logger.Debug("capture armed", "topic", deviceTopic)
	return capture, nil
}

// AvailabilityHandler receives device availability changes. The topic is
// the device's bus topic segment, not the full availability topic.
type AvailabilityHandler func(deviceTopic string, online bool)

// WatchAvailability subscribes to every device availability topic under
// the base and forwards online/offline announcements to the handler.
func (b *Bridge) WatchAvailability(handler AvailabilityHandler) error {
	if !b.client.IsConnected() {
		return ErrBridgeUnavailable
	}

	err := b.client.Subscribe(b.topics.AllAvailability(), b.qos, func(topic string, payload []byte) error {
		deviceTopic, ok := b.deviceTopicFromAvailability(topic)
		if !ok {
			return nil
		}
		online, ok := parseAvailabilityPayload(payload)
		if !ok {
			b.logger.Warn("unrecognised availability payload",
				"topic", deviceTopic, "payload", string(payload))
			return nil
		}
		handler(deviceTopic, online)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// deviceTopicFromAvailability extracts the device segment from a full
// availability topic ("{base}/{device}/availability").
func (b *Bridge) deviceTopicFromAvailability(topic string) (string, bool) {
	prefix := b.topics.Base + "/"
	const suffix = "/availability"

	if !strings.HasPrefix(topic, prefix) || !strings.HasSuffix(topic, suffix) {
		return "", false
	}
	device := topic[len(prefix) : len(topic)-len(suffix)]
	if device == "" || strings.Contains(device, "/") {
		return "", false
	}
	return device, true
}

// parseAvailabilityPayload accepts both the plain-string and JSON forms
// devices publish ("online" or {"state":"online"}).
func parseAvailabilityPayload(payload []byte) (online, ok bool) {
	s := strings.TrimSpace(string(payload))

	if strings.HasPrefix(s, "{") {
		var body struct {
			State string `json:"state"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return false, false
		}
		s = body.State
	}
	s = strings.Trim(s, `"`)

	switch s {
	case "online":
		return true, true
	case "offline":
		return false, true
	}
	return false, false
}

// wrapTransportError maps client-level failures onto bridge sentinels
// while preserving the underlying error for logs.
func wrapTransportError(err error) error {
	if errors.Is(err, mqtt.ErrNotConnected) {
		return fmt.Errorf("%w: %w", ErrBridgeUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrPublishFailed, err)
}

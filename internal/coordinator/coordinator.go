package coordinator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/irbridge-core/internal/bridge"
	"github.com/nerrad567/irbridge-core/internal/device"
	"github.com/nerrad567/irbridge-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/irbridge-core/internal/infrastructure/tsdb"
	"github.com/nerrad567/irbridge-core/internal/ircode"
	"github.com/nerrad567/irbridge-core/internal/learning"
)

// Transmitter is the bridge surface the coordinator needs. Satisfied by
// *bridge.Bridge; mocked in tests.
type Transmitter interface {
	Send(deviceTopic, payload string) error
	WatchAvailability(handler bridge.AvailabilityHandler) error
}

// EventPublisher mirrors learning events onto the bus. Satisfied by
// *mqtt.Client.
type EventPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is a minimal logging interface so the coordinator does not
// depend on a concrete logging implementation.
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

// Deps carries the coordinator's collaborators. All references are
// explicit and injectable; the coordinator holds no ambient globals.
type Deps struct {
	Devices     *device.Registry
	Codes       *ircode.Store
	Bridge      Transmitter
	Sessions    *learning.Registry
	Broadcaster *learning.Broadcaster

	// Publisher and Topics drive the bus mirror of learning events.
	// Optional; nil disables mirroring.
	Publisher EventPublisher
	Topics    mqtt.Topics

	// Telemetry is optional; nil disables measurement writes.
	Telemetry *tsdb.Client

	Logger Logger
}

// Coordinator is the top-level façade over the IR subsystem: device
// inventory, command dispatch, learning orchestration and library
// export/import.
type Coordinator struct {
	devices     *device.Registry
	codes       *ircode.Store
	bridge      Transmitter
	sessions    *learning.Registry
	broadcaster *learning.Broadcaster
	publisher   EventPublisher
	topics      mqtt.Topics
	telemetry   *tsdb.Client
	logger      Logger

	mirror *learning.Subscription
}

// New creates a Coordinator from its dependencies.
func New(deps Deps) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Coordinator{
		devices:     deps.Devices,
		codes:       deps.Codes,
		bridge:      deps.Bridge,
		sessions:    deps.Sessions,
		broadcaster: deps.Broadcaster,
		publisher:   deps.Publisher,
		topics:      deps.Topics,
		telemetry:   deps.Telemetry,
		logger:      logger,
	}
}

// Start wires the coordinator's background plumbing: availability
// tracking from the bus and the learning-event mirror onto the bus.
func (c *Coordinator) Start(ctx context.Context) error {
	err := c.bridge.WatchAvailability(func(deviceTopic string, online bool) {
		c.handleAvailability(ctx, deviceTopic, online)
	})
	if err != nil {
		return err
	}

	if c.publisher != nil && c.broadcaster != nil {
		c.mirror = c.broadcaster.SubscribeAll()
		go c.runMirror()
	}

	c.logger.Info("coordinator started")
	return nil
}

// Close stops background plumbing and cancels any active sessions.
func (c *Coordinator) Close() {
	if c.mirror != nil {
		c.mirror.Cancel()
	}
	if c.sessions != nil {
		c.sessions.Close()
	}
}

// handleAvailability applies a bus availability announcement.
func (c *Coordinator) handleAvailability(ctx context.Context, deviceTopic string, online bool) {
	availability := device.AvailabilityOffline
	if online {
		availability = device.AvailabilityOnline
	}

	if err := c.devices.SetAvailability(ctx, deviceTopic, availability); err != nil {
		// Announcements for topics we do not manage are routine on a
		// shared base topic.
		c.logger.Debug("availability for unmanaged topic",
			"topic", deviceTopic, "error", err)
		return
	}

	d, err := c.devices.GetByTopic(deviceTopic)
	if err != nil {
		return
	}

	if c.telemetry != nil {
		c.telemetry.WriteAvailability(d.ID, online)
	}

	if c.publisher != nil {
		ev := deviceEvent{
			DeviceID:     d.ID,
			Availability: string(availability),
			Timestamp:    time.Now().UTC(),
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		topic := c.topics.CoreDeviceEvent(d.ID)
		if err := c.publisher.Publish(topic, payload, 0, true); err != nil {
			c.logger.Warn("mirroring availability event failed",
				"topic", topic, "error", err)
		}
	}
}

// deviceEvent is the payload mirrored on the core device event topic
// when a device's availability changes.
type deviceEvent struct {
	DeviceID     string    `json:"device_id"`
	Availability string    `json:"availability"`
	Timestamp    time.Time `json:"timestamp"`
}

// runMirror republishes learning events to the bridge-owned bus topics
// so external observers can follow sessions without the HTTP API.
func (c *Coordinator) runMirror() {
	for ev := range c.mirror.C {
		payload, err := json.Marshal(ev)
		if err != nil {
			c.logger.Error("marshalling learning event", "error", err)
			continue
		}

		topic := c.topics.CoreLearning(ev.DeviceID)
		if err := c.publisher.Publish(topic, payload, 0, false); err != nil {
			c.logger.Warn("mirroring learning event failed",
				"topic", topic, "error", err)
		}

		if c.telemetry != nil && ev.State.Terminal() {
			// The terminal session snapshot is still held by the registry
			// until discarded, so the duration is recoverable here.
			var duration time.Duration
			if s, err := c.sessions.Status(ev.SessionID); err == nil && s.FinishedAt != nil {
				duration = s.FinishedAt.Sub(s.StartedAt)
			}
			c.telemetry.WriteSessionOutcome(ev.DeviceID, string(ev.State), duration)
		}
	}
}

// ListDevices returns the device inventory.
func (c *Coordinator) ListDevices() []device.Device {
	return c.devices.List()
}

// GetDevice retrieves a device by ID.
func (c *Coordinator) GetDevice(id string) (*device.Device, error) {
	return c.devices.Get(id)
}

// CreateDevice registers a new device. When seedBuiltins is set the
// factory command set is loaded into its library.
func (c *Coordinator) CreateDevice(ctx context.Context, d *device.Device, seedBuiltins bool) (*device.Device, error) {
	created, err := c.devices.Create(ctx, d)
	if err != nil {
		return nil, err
	}

	if seedBuiltins {
		if _, err := c.codes.Seed(ctx, created.ID); err != nil {
			c.logger.Error("seeding built-in commands failed",
				"device_id", created.ID, "error", err)
		}
	}
	return created, nil
}

// UpdateDevice modifies an existing device.
func (c *Coordinator) UpdateDevice(ctx context.Context, d *device.Device) (*device.Device, error) {
	return c.devices.Update(ctx, d)
}

// RemoveDevice deletes a device. Its command library rows are removed by
// the database cascade; the cached library is dropped here.
func (c *Coordinator) RemoveDevice(ctx context.Context, id string) error {
	if err := c.devices.Delete(ctx, id); err != nil {
		return err
	}
	c.codes.Forget(id)
	return nil
}

// SendCommand looks up a stored command and transmits it.
func (c *Coordinator) SendCommand(ctx context.Context, deviceID string, category ircode.Category, name string) error {
	d, err := c.devices.Get(deviceID)
	if err != nil {
		return err
	}

	code, err := c.codes.Get(ctx, deviceID, category, name)
	if err != nil {
		return err
	}

	sendErr := c.bridge.Send(d.Topic, code.Payload)

	if c.telemetry != nil {
		c.telemetry.WriteCommandDispatch(deviceID, string(category), name, sendErr == nil)
	}
	return sendErr
}

// TestCommand transmits a raw payload without touching the library.
// Used to verify a freshly captured code before saving it.
func (c *Coordinator) TestCommand(ctx context.Context, deviceID, payload string) error {
	if err := ircode.ValidatePayload(payload); err != nil {
		return err
	}

	d, err := c.devices.Get(deviceID)
	if err != nil {
		return err
	}
	return c.bridge.Send(d.Topic, payload)
}

// StartLearning arms a capture session for a device.
func (c *Coordinator) StartLearning(deviceID string, category ircode.Category, name string, timeout time.Duration) (*learning.Session, error) {
	d, err := c.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}
	return c.sessions.Start(deviceID, d.Topic, category, name, timeout)
}

// CancelLearning aborts an armed session.
func (c *Coordinator) CancelLearning(sessionID string) error {
	return c.sessions.Cancel(sessionID)
}

// LearningStatus returns a session snapshot.
func (c *Coordinator) LearningStatus(sessionID string) (*learning.Session, error) {
	return c.sessions.Status(sessionID)
}

// ActiveLearning returns a device's non-terminal session, if any.
func (c *Coordinator) ActiveLearning(deviceID string) (*learning.Session, error) {
	return c.sessions.ActiveSession(deviceID)
}

// SaveLearned stores a succeeded session's captured code in the library
// and discards the session. Category and name default to the session's
// targets when empty. Fails with ErrSessionNotSucceeded unless the
// session captured a code.
func (c *Coordinator) SaveLearned(ctx context.Context, sessionID string, category ircode.Category, name string) (*ircode.Code, error) {
	s, err := c.sessions.Status(sessionID)
	if err != nil {
		return nil, err
	}
	if s.State != learning.StateSucceeded || s.Captured == nil {
		return nil, learning.ErrSessionNotSucceeded
	}

	if category == "" {
		category = s.Category
	}
	if name == "" {
		name = s.Name
	}

	code := s.Captured.DeepCopy()
	code.Category = category
	code.Name = name
	code.Provenance = ircode.ProvenanceLearned

	if err := c.codes.Put(ctx, s.DeviceID, code); err != nil {
		return nil, err
	}

	if err := c.sessions.Discard(sessionID); err != nil {
		c.logger.Warn("discarding saved session failed",
			"session_id", sessionID, "error", err)
	}

	c.logger.Info("learned command saved",
		"device_id", s.DeviceID, "category", string(category), "name", name)
	return code, nil
}

// DiscardSession drops a terminal session without saving.
func (c *Coordinator) DiscardSession(sessionID string) error {
	return c.sessions.Discard(sessionID)
}

// SubscribeUpdates streams session events for one device.
func (c *Coordinator) SubscribeUpdates(deviceID string) *learning.Subscription {
	return c.broadcaster.Subscribe(deviceID)
}

// SubscribeAllUpdates streams session events for every device.
func (c *Coordinator) SubscribeAllUpdates() *learning.Subscription {
	return c.broadcaster.SubscribeAll()
}

// Export builds the interchange document for a device's library.
func (c *Coordinator) Export(ctx context.Context, deviceID string) (*ircode.ExportDocument, error) {
	d, err := c.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}

	return c.codes.Export(ctx, deviceID, ircode.ExportMetadata{
		Manufacturer:    d.Manufacturer,
		SupportedModels: d.SupportedModels,
		Controller:      d.Controller,
	})
}

// Import applies an interchange document to a device's library.
func (c *Coordinator) Import(ctx context.Context, deviceID string, doc *ircode.ExportDocument, overwrite bool) (ircode.ImportResult, error) {
	if _, err := c.devices.Get(deviceID); err != nil {
		return ircode.ImportResult{}, err
	}
	return c.codes.Import(ctx, deviceID, doc, overwrite)
}

// ClearLibrary removes every command for a device. Irreversible, so the
// caller must pass the explicit confirmation flag.
func (c *Coordinator) ClearLibrary(ctx context.Context, deviceID string, confirmed bool) (int, error) {
	if !confirmed {
		return 0, ErrConfirmationRequired
	}
	if _, err := c.devices.Get(deviceID); err != nil {
		return 0, err
	}
	return c.codes.DeleteAll(ctx, deviceID)
}

// ListCommands returns every stored command for a device.
func (c *Coordinator) ListCommands(ctx context.Context, deviceID string) ([]ircode.Code, error) {
	if _, err := c.devices.Get(deviceID); err != nil {
		return nil, err
	}
	return c.codes.List(ctx, deviceID)
}

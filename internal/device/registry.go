package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger is a minimal logging interface so the registry does not depend
// on a concrete logging implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Registry manages devices with an in-memory cache backed by a Repository.
//
// All reads are served from the cache. Writes go to the repository first,
// then update the cache on success. Returned devices are deep copies so
// callers can never mutate cached state.
type Registry struct {
	repo   Repository
	logger Logger

	mu      sync.RWMutex
	devices map[string]*Device
	byTopic map[string]string // topic -> device ID
}

// NewRegistry creates a device registry and loads all devices from the
// repository into the cache.
func NewRegistry(ctx context.Context, repo Repository, logger Logger) (*Registry, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	r := &Registry{
		repo:    repo,
		logger:  logger,
		devices: make(map[string]*Device),
		byTopic: make(map[string]string),
	}

	if err := r.load(ctx); err != nil {
		return nil, fmt.Errorf("loading device cache: %w", err)
	}

	r.logger.Info("device registry initialised", "devices", len(r.devices))
	return r, nil
}

// load populates the cache from the repository.
func (r *Registry) load(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = make(map[string]*Device, len(devices))
	r.byTopic = make(map[string]string, len(devices))
	for i := range devices {
		d := devices[i]
		r.devices[d.ID] = d.DeepCopy()
		r.byTopic[d.Topic] = d.ID
	}
	return nil
}

// Get retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
func (r *Registry) Get(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

// GetByTopic retrieves a device by its bus topic.
// Returns ErrDeviceNotFound if no device claims the topic.
func (r *Registry) GetByTopic(topic string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTopic[topic]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return r.devices[id].DeepCopy(), nil
}

// List returns all devices sorted by the repository's ordering at load
// time. The result is a fresh slice of deep copies.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, *d.DeepCopy())
	}
	return out
}

// Create validates and persists a new device.
//
// Missing fields are filled in: a generated ID, a slug derived from the
// name, and the default controller. Returns the stored device.
func (r *Registry) Create(ctx context.Context, d *Device) (*Device, error) {
	if d == nil {
		return nil, ErrInvalidDevice
	}

	cpy := d.DeepCopy()
	if cpy.ID == "" {
		cpy.ID = GenerateID()
	}
	if cpy.Slug == "" {
		cpy.Slug = GenerateSlug(cpy.Name)
	}
	if cpy.Controller == "" {
		cpy.Controller = DefaultController
	}
	if cpy.Availability == "" {
		cpy.Availability = AvailabilityUnknown
	}

	if err := ValidateDevice(cpy); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[cpy.ID]; exists {
		return nil, ErrDeviceExists
	}
	if _, taken := r.byTopic[cpy.Topic]; taken {
		return nil, ErrTopicExists
	}

	if err := r.repo.Create(ctx, cpy); err != nil {
		return nil, err
	}

	r.devices[cpy.ID] = cpy
	r.byTopic[cpy.Topic] = cpy.ID

	r.logger.Info("device created", "device_id", cpy.ID, "topic", cpy.Topic)
	return cpy.DeepCopy(), nil
}

// Update validates and persists changes to an existing device.
func (r *Registry) Update(ctx context.Context, d *Device) (*Device, error) {
	if d == nil {
		return nil, ErrInvalidDevice
	}

	cpy := d.DeepCopy()
	if err := ValidateDevice(cpy); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.devices[cpy.ID]
	if !ok {
		return nil, ErrDeviceNotFound
	}

	// Topic changes must not collide with another device.
	if cpy.Topic != existing.Topic {
		if owner, taken := r.byTopic[cpy.Topic]; taken && owner != cpy.ID {
			return nil, ErrTopicExists
		}
	}

	cpy.CreatedAt = existing.CreatedAt
	if err := r.repo.Update(ctx, cpy); err != nil {
		return nil, err
	}

	delete(r.byTopic, existing.Topic)
	r.devices[cpy.ID] = cpy
	r.byTopic[cpy.Topic] = cpy.ID

	r.logger.Info("device updated", "device_id", cpy.ID)
	return cpy.DeepCopy(), nil
}

// Delete removes a device by ID.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	delete(r.devices, id)
	delete(r.byTopic, existing.Topic)

	r.logger.Info("device deleted", "device_id", id)
	return nil
}

// SetAvailability records an availability report from the bus for the
// device owning the given topic. Unknown topics are ignored and reported
// via the returned error so callers can log at their chosen level.
func (r *Registry) SetAvailability(ctx context.Context, topic string, availability Availability) error {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byTopic[topic]
	if !ok {
		return ErrDeviceNotFound
	}

	d := r.devices[id]
	if d.Availability == availability {
		// Refresh last_seen without touching the repository on every
		// duplicate report.
		d.LastSeen = &now
		return nil
	}

	if err := r.repo.UpdateAvailability(ctx, id, availability, now); err != nil {
		return err
	}

	d.Availability = availability
	d.LastSeen = &now
	d.UpdatedAt = now

	r.logger.Debug("device availability changed",
		"device_id", id, "availability", string(availability))
	return nil
}

// Count returns the number of cached devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

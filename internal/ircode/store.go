package ircode

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// maxCommandNameLength bounds user-supplied command names.
const maxCommandNameLength = 64

// Logger is a minimal logging interface so the store does not depend on
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

// Store manages per-device command libraries with an in-memory cache
// backed by a Repository.
//
// Libraries are loaded lazily on first reference to a device. Mutations
// are applied atomically with respect to concurrent reads: a reader can
// never observe a partially written entry.
type Store struct {
	repo   Repository
	logger Logger

	mu        sync.RWMutex
	libraries map[string]map[Key]*Code // device ID -> library
}

// NewStore creates a command library store.
func NewStore(repo Repository, logger Logger) *Store {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Store{
		repo:      repo,
		logger:    logger,
		libraries: make(map[string]map[Key]*Code),
	}
}

// library returns the cached library for a device, loading it from the
// repository on first reference. Callers must not hold s.mu.
func (s *Store) library(ctx context.Context, deviceID string) (map[Key]*Code, error) {
	s.mu.RLock()
	lib, ok := s.libraries[deviceID]
	s.mu.RUnlock()
	if ok {
		return lib, nil
	}

	codes, err := s.repo.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("loading library: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have loaded it while we queried.
	if lib, ok := s.libraries[deviceID]; ok {
		return lib, nil
	}

	lib = make(map[Key]*Code, len(codes))
	for i := range codes {
		c := codes[i]
		lib[Key{Category: c.Category, Name: c.Name}] = c.DeepCopy()
	}
	s.libraries[deviceID] = lib

	s.logger.Debug("command library loaded", "device_id", deviceID, "commands", len(lib))
	return lib, nil
}

// Get retrieves a command by category and name.
// Returns ErrCommandNotFound if no entry exists.
func (s *Store) Get(ctx context.Context, deviceID string, category Category, name string) (*Code, error) {
	if _, err := ParseCategory(string(category)); err != nil {
		return nil, err
	}

	if _, err := s.library(ctx, deviceID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.libraries[deviceID][Key{Category: category, Name: name}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrCommandNotFound, category, name)
	}
	return c.DeepCopy(), nil
}

// Put validates and stores a command, replacing any existing entry with
// the same (category, name) key.
func (s *Store) Put(ctx context.Context, deviceID string, c *Code) error {
	if c == nil {
		return ErrInvalidPayload
	}
	if _, err := ParseCategory(string(c.Category)); err != nil {
		return err
	}
	if err := validateName(c.Name); err != nil {
		return err
	}
	if err := ValidatePayload(c.Payload); err != nil {
		return err
	}

	if _, err := s.library(ctx, deviceID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cpy := c.DeepCopy()
	if err := s.repo.Upsert(ctx, deviceID, cpy); err != nil {
		return err
	}

	s.libraries[deviceID][Key{Category: cpy.Category, Name: cpy.Name}] = cpy

	s.logger.Debug("command stored",
		"device_id", deviceID, "category", string(cpy.Category),
		"name", cpy.Name, "provenance", string(cpy.Provenance))
	return nil
}

// List returns every command for a device, defensively copied.
func (s *Store) List(ctx context.Context, deviceID string) ([]Code, error) {
	if _, err := s.library(ctx, deviceID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lib := s.libraries[deviceID]
	out := make([]Code, 0, len(lib))
	for _, c := range lib {
		out = append(out, *c.DeepCopy())
	}
	return out, nil
}

// Count returns the number of commands stored for a device.
func (s *Store) Count(ctx context.Context, deviceID string) (int, error) {
	if _, err := s.library(ctx, deviceID); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.libraries[deviceID]), nil
}

// DeleteAll removes every command for a device. Irreversible. Callers
// are expected to have gathered explicit confirmation before invoking.
func (s *Store) DeleteAll(ctx context.Context, deviceID string) (int, error) {
	if _, err := s.library(ctx, deviceID); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.repo.DeleteAll(ctx, deviceID)
	if err != nil {
		return 0, err
	}

	s.libraries[deviceID] = make(map[Key]*Code)

	s.logger.Info("command library cleared", "device_id", deviceID, "removed", removed)
	return removed, nil
}

// Forget drops a device's cached library. Used when the device itself is
// removed; persisted rows are cleaned up by the database cascade.
func (s *Store) Forget(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.libraries, deviceID)
}

// Seed inserts the built-in factory command set for a device, skipping
// any key that already exists. Re-seeding is therefore a no-op for
// libraries already carrying the factory set, and never overwrites
// learned or imported entries. Returns the number of commands inserted.
func (s *Store) Seed(ctx context.Context, deviceID string) (int, error) {
	builtins, err := BuiltinCommands()
	if err != nil {
		return 0, err
	}

	if _, err := s.library(ctx, deviceID); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lib := s.libraries[deviceID]
	inserted := 0
	for i := range builtins {
		c := builtins[i]
		key := Key{Category: c.Category, Name: c.Name}
		if _, exists := lib[key]; exists {
			continue
		}

		cpy := c.DeepCopy()
		cpy.Provenance = ProvenanceBuiltIn
		if err := s.repo.Upsert(ctx, deviceID, cpy); err != nil {
			return inserted, err
		}
		lib[key] = cpy
		inserted++
	}

	if inserted > 0 {
		s.logger.Info("built-in command set seeded",
			"device_id", deviceID, "inserted", inserted)
	}
	return inserted, nil
}

// validateName checks a command name. Names are case-sensitive and kept
// as supplied; only emptiness and length are enforced.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(name) > maxCommandNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxCommandNameLength)
	}
	return nil
}

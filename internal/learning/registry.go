package learning

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/irbridge-core/internal/bridge"
	"github.com/nerrad567/irbridge-core/internal/infrastructure/config"
	"github.com/nerrad567/irbridge-core/internal/ircode"
)

// CaptureArmer is the bridge surface the registry needs. Satisfied by
// *bridge.Bridge; mocked in tests.
type CaptureArmer interface {
	ArmCapture(deviceTopic string) (*bridge.Capture, error)
}

// Logger is a minimal logging interface so the registry does not depend
// on a concrete logging implementation.
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

// session is the registry's internal record. The embedded Session holds
// the externally visible fields; the rest drives the state machine.
type session struct {
	Session

	timer   *time.Timer
	capture *bridge.Capture
	done    chan struct{}
}

// Registry arbitrates learning sessions.
//
// The central invariant: at most one non-terminal session exists per
// device. Start is serialized per device, not across the registry, so
// unrelated devices never contend. Terminal transitions are idempotent;
// whichever of capture, timeout or cancel lands first wins and later
// transitions are silently ignored.
type Registry struct {
	armer       CaptureArmer
	broadcaster *Broadcaster
	cfg         config.LearningConfig
	logger      Logger

	mu       sync.Mutex
	sessions map[string]*session // by session ID
	active   map[string]*session // by device ID, non-terminal only
	locks    map[string]*sync.Mutex
}

// NewRegistry creates a session registry.
func NewRegistry(armer CaptureArmer, broadcaster *Broadcaster, cfg config.LearningConfig, logger Logger) *Registry {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		armer:       armer,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger,
		sessions:    make(map[string]*session),
		active:      make(map[string]*session),
		locks:       make(map[string]*sync.Mutex),
	}
}

// deviceLock returns the per-device critical section, creating it on
// first use.
func (r *Registry) deviceLock(deviceID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.locks[deviceID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[deviceID] = m
	}
	return m
}

// resolveTimeout applies the configured bounds: zero selects the
// default, below the minimum is rejected, above the maximum is clamped.
func (r *Registry) resolveTimeout(timeout time.Duration) (time.Duration, error) {
	if timeout == 0 {
		return r.cfg.DefaultLearnTimeout(), nil
	}
	if timeout < r.cfg.MinLearnTimeout() {
		return 0, fmt.Errorf("%w: %s below minimum %s",
			ErrInvalidTimeout, timeout, r.cfg.MinLearnTimeout())
	}
	if maxTimeout := r.cfg.MaxLearnTimeout(); timeout > maxTimeout {
		return maxTimeout, nil
	}
	return timeout, nil
}

// Start arms a capture for the device and records a new armed session.
//
// Fails with ErrSessionAlreadyActive if a non-terminal session exists
// for the device. Bridge failures during arming surface immediately and
// no session is created. A zero timeout selects the configured default;
// below the minimum is rejected with ErrInvalidTimeout, above the
// maximum is clamped to the maximum. Returns the new session snapshot.
func (r *Registry) Start(deviceID, deviceTopic string, category ircode.Category, name string, timeout time.Duration) (*Session, error) {
	if _, err := ircode.ParseCategory(string(category)); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ircode.ErrInvalidName)
	}

	timeout, err := r.resolveTimeout(timeout)
	if err != nil {
		return nil, err
	}

	lock := r.deviceLock(deviceID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	_, busy := r.active[deviceID]
	r.mu.Unlock()
	if busy {
		return nil, fmt.Errorf("%w: device %s", ErrSessionAlreadyActive, deviceID)
	}

	capture, err := r.armer.ArmCapture(deviceTopic)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &session{
		Session: Session{
			ID:        uuid.NewString(),
			DeviceID:  deviceID,
			Category:  category,
			Name:      name,
			Timeout:   timeout,
			State:     StateArmed,
			StartedAt: now,
		},
		capture: capture,
		done:    make(chan struct{}),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.active[deviceID] = s
	snapshot := s.Session
	// Emit the armed event and start the deadline before releasing the
	// lock. finish takes the same lock, so a capture that resolves
	// immediately cannot publish its terminal event ahead of this one or
	// race the snapshot reads.
	r.publish(&snapshot)
	s.timer = time.AfterFunc(timeout, func() {
		r.finish(s.ID, StateTimedOut, nil, "")
	})
	r.mu.Unlock()

	go r.awaitCapture(s)

	r.logger.Info("learning session armed",
		"session_id", s.ID, "device_id", deviceID,
		"category", string(category), "name", name, "timeout", timeout)

	return snapshot.DeepCopy(), nil
}

// awaitCapture resolves the session from the capture handle. The done
// channel releases the goroutine when another path finishes first.
func (r *Registry) awaitCapture(s *session) {
	select {
	case result := <-s.capture.C:
		if result.Err != nil {
			r.finish(s.ID, StateFailed, nil, result.Err.Error())
			return
		}
		if err := ircode.ValidatePayload(result.Code); err != nil {
			r.finish(s.ID, StateFailed, nil, fmt.Sprintf("captured code rejected: %v", err))
			return
		}
		r.finish(s.ID, StateSucceeded, &ircode.Code{
			Category:   s.Category,
			Name:       s.Name,
			Payload:    result.Code,
			Protocol:   result.Protocol,
			Bits:       result.Bits,
			Frequency:  result.Frequency,
			Provenance: ircode.ProvenanceLearned,
		}, "")
	case <-s.done:
	}
}

// finish applies a terminal transition. Idempotent: once a session is
// terminal, later transitions are no-ops, so a stale timer or an
// in-flight capture after a cancel cannot overwrite the outcome.
func (r *Registry) finish(sessionID string, state State, captured *ircode.Code, errDetail string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok || s.State.Terminal() {
		r.mu.Unlock()
		return
	}

	now := time.Now().UTC()
	s.State = state
	s.FinishedAt = &now
	s.Captured = captured
	s.Error = errDetail

	if s.timer != nil {
		s.timer.Stop()
	}
	close(s.done)
	delete(r.active, s.DeviceID)
	snapshot := s.Session
	r.mu.Unlock()

	s.capture.Cancel()

	r.logger.Info("learning session finished",
		"session_id", sessionID, "device_id", snapshot.DeviceID,
		"state", string(state), "error", errDetail)

	r.publish(&snapshot)
}

// publish emits a broadcast event from a session snapshot. The captured
// payload rides only on the succeeded event.
func (r *Registry) publish(s *Session) {
	if r.broadcaster == nil {
		return
	}
	ev := Event{
		SessionID: s.ID,
		DeviceID:  s.DeviceID,
		State:     s.State,
		Category:  s.Category,
		Name:      s.Name,
		Error:     s.Error,
		Timestamp: time.Now().UTC(),
	}
	if s.State == StateSucceeded {
		ev.Captured = s.Captured.DeepCopy()
	}
	r.broadcaster.Publish(ev)
}

// Cancel aborts an armed session. Fails with ErrSessionNotActive if the
// session is already terminal.
func (r *Registry) Cancel(sessionID string) error {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	if s.State.Terminal() {
		r.mu.Unlock()
		return fmt.Errorf("%w: session %s is %s", ErrSessionNotActive, sessionID, s.State)
	}
	r.mu.Unlock()

	r.finish(sessionID, StateCancelled, nil, "")
	return nil
}

// Status returns a snapshot of a session.
func (r *Registry) Status(sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Session.DeepCopy(), nil
}

// ActiveSession returns the device's non-terminal session, if any.
func (r *Registry) ActiveSession(deviceID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.active[deviceID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Session.DeepCopy(), nil
}

// Discard removes a terminal session from the registry. Sessions stay
// queryable after finishing until discarded; a fresh Start for the same
// device is accepted as soon as the prior session is terminal, discarded
// or not.
func (r *Registry) Discard(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if !s.State.Terminal() {
		return fmt.Errorf("%w: session %s", ErrSessionStillActive, sessionID)
	}
	delete(r.sessions, sessionID)
	return nil
}

// Close cancels every active session. Used during shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.active))
	for _, s := range r.active {
		ids = append(ids, s.ID)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.finish(id, StateCancelled, nil, "")
	}
}

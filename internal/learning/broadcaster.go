package learning

import "sync"

// defaultBufferSize is the per-subscriber event buffer.
const defaultBufferSize = 16

// Subscription is a handle on an event stream. Events arrive on C in
// emission order. Cancel releases the subscription; C is closed once no
// further events will be delivered.
type Subscription struct {
	C <-chan Event

	cancelOnce sync.Once
	cancel     func()
}

// Cancel releases the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(s.cancel)
}

// Broadcaster fans session events out to any number of subscribers,
// per device or globally.
//
// Delivery is best-effort and never blocks the publisher: each
// subscriber has a bounded buffer and the oldest undelivered event is
// dropped on overflow. Subscribers that need exact state re-query the
// registry directly.
type Broadcaster struct {
	mu         sync.RWMutex
	nextID     int
	perDevice  map[string]map[int]chan Event
	all        map[int]chan Event
	bufferSize int
}

// NewBroadcaster creates a Broadcaster. A bufferSize of zero selects the
// default.
func NewBroadcaster(bufferSize int) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Broadcaster{
		perDevice:  make(map[string]map[int]chan Event),
		all:        make(map[int]chan Event),
		bufferSize: bufferSize,
	}
}

// Subscribe registers for events of a single device.
func (b *Broadcaster) Subscribe(deviceID string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event, b.bufferSize)
	if b.perDevice[deviceID] == nil {
		b.perDevice[deviceID] = make(map[int]chan Event)
	}
	b.perDevice[deviceID][id] = ch

	sub := &Subscription{C: ch}
	sub.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.perDevice[deviceID]; ok {
			if _, live := subs[id]; live {
				delete(subs, id)
				close(ch)
			}
			if len(subs) == 0 {
				delete(b.perDevice, deviceID)
			}
		}
	}
	return sub
}

// SubscribeAll registers for events of every device.
func (b *Broadcaster) SubscribeAll() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event, b.bufferSize)
	b.all[id] = ch

	sub := &Subscription{C: ch}
	sub.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, live := b.all[id]; live {
			delete(b.all, id)
			close(ch)
		}
	}
	return sub
}

// Publish delivers an event to every matching subscriber. Never blocks;
// a full subscriber buffer drops its oldest event to make room.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.perDevice[ev.DeviceID] {
		offer(ch, ev)
	}
	for _, ch := range b.all {
		offer(ch, ev)
	}
}

// SubscriberCount reports the number of live subscriptions, global and
// per-device combined.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.all)
	for _, subs := range b.perDevice {
		n += len(subs)
	}
	return n
}

// offer enqueues without blocking, evicting the oldest buffered event
// when full. Sends happen under the broadcaster's read lock while close
// happens under the write lock, so a send can never hit a closed channel.
func offer(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

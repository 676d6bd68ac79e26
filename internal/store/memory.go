package store

import (
	"sync"
)

// subscriberBuffer is the number of snapshots a subscriber may lag behind.
const subscriberBuffer = 16

// MemoryStore is an in-memory implementation of [Store].
//
// Servers keep the order they were registered in. Observations for a known
// name update that server in place; observations for an unknown name append
// a new server at the end.
//
// Subscribers receive snapshots via buffered channels. Sends are
// non-blocking; if a subscriber's buffer is full the snapshot is dropped for
// that subscriber. Every snapshot is complete, so a later one supersedes it.
type MemoryStore struct {
	mu          sync.RWMutex
	servers     []ServerStatus
	index       map[string]int
	subscribers map[chan []ServerStatus]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a [MemoryStore] seeded with servers in order. All
// servers start down with zero checks.
func NewMemoryStore(servers ...Server) *MemoryStore {
	m := &MemoryStore{
		servers:     make([]ServerStatus, 0, len(servers)),
		index:       make(map[string]int, len(servers)),
		subscribers: make(map[chan []ServerStatus]struct{}),
	}
	for _, s := range servers {
		m.addLocked(s.Name, s.Host)
	}
	return m
}

// Update applies each observation in order and notifies all subscribers
// once with the resulting snapshot.
func (m *MemoryStore) Update(obs ...Observation) {
	if len(obs) == 0 {
		return
	}

	m.mu.Lock()
	for _, o := range obs {
		i, ok := m.index[o.Name]
		if !ok {
			i = m.addLocked(o.Name, "")
		}
		applyLocked(&m.servers[i], o)
	}
	snapshot := m.copyLocked()
	m.mu.Unlock()

	m.notifySubscribers(snapshot)
}

// applyLocked records one probe outcome and recomputes uptime.
func applyLocked(s *ServerStatus, o Observation) {
	s.Status = o.Up
	s.LastChecked = o.CheckedAt
	s.ResponseTime = 0
	if o.Up {
		s.ResponseTime = o.ResponseTime.Milliseconds()
	}
	s.Checks++
	if o.Up {
		s.Successes++
	}
	s.Uptime = float64(s.Successes) / float64(s.Checks) * 100
}

func (m *MemoryStore) addLocked(name, host string) int {
	m.servers = append(m.servers, ServerStatus{Name: name, Host: host})
	i := len(m.servers) - 1
	m.index[name] = i
	return i
}

func (m *MemoryStore) copyLocked() []ServerStatus {
	cp := make([]ServerStatus, len(m.servers))
	copy(cp, m.servers)
	return cp
}

// GetAll returns a snapshot of all servers in configured order.
//
// The returned slice is a copy; modifications do not affect the store.
// An empty store returns an empty, non-nil slice.
func (m *MemoryStore) GetAll() []ServerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyLocked()
}

// Subscribe creates a new subscription and returns a channel for receiving
// snapshots.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan []ServerStatus {
	ch := make(chan []ServerStatus, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// snapshots will be sent. Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan []ServerStatus) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the snapshot to all active subscribers without
// blocking. Each subscriber gets its own copy.
func (m *MemoryStore) notifySubscribers(snapshot []ServerStatus) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		cp := make([]ServerStatus, len(snapshot))
		copy(cp, snapshot)
		select {
		case ch <- cp:
		default:
			// subscriber is slow, drop the snapshot
		}
	}
}

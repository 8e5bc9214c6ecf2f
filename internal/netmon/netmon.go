// Package netmon tracks the device's connectivity signal.
//
// The monitor holds a single boolean fed by the host platform's
// online/offline events. It does not poll, probe, retry or debounce; it is
// a pass-through signal whose transitions are fanned out to subscribers so
// dependent reads can refetch when connectivity returns.
package netmon

import "sync"

// Monitor reflects the platform connectivity signal.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   []chan bool
}

// New creates a Monitor with the given initial state.
func New(online bool) *Monitor {
	return &Monitor{online: online}
}

// IsOnline reports the last known connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// IsOffline is the negation of IsOnline.
func (m *Monitor) IsOffline() bool {
	return !m.IsOnline()
}

// Set records a connectivity transition from the platform. Subscribers are
// notified only on an actual state change; sends never block (a subscriber
// that has not drained its channel misses intermediate flips, which is fine
// for a level signal).
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return
	}
	m.online = online
	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
		}
	}
}

// Subscribe returns a channel receiving connectivity transitions. The
// channel is buffered with one slot per the non-blocking send in Set.
func (m *Monitor) Subscribe() <-chan bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan bool, 1)
	m.subs = append(m.subs, ch)
	return ch
}

package lock

import "github.com/aretw0/introspection"

// State is the introspection snapshot of a Manager.
type State struct {
	ActiveLocks        int            `json:"active_locks"`
	IdleTimeoutSeconds float64        `json:"idle_timeout_seconds"`
	Holders            map[string]int `json:"holders"`
}

// State implements introspection.Introspectable.
func (m *Manager) State() any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	s := State{
		IdleTimeoutSeconds: m.idleTimeout.Seconds(),
		Holders:            make(map[string]int),
	}
	for _, e := range m.locks {
		if m.expired(e, now) {
			continue
		}
		s.ActiveLocks++
		s.Holders[e.holder]++
	}
	return s
}

// ComponentType implements introspection.Component.
func (m *Manager) ComponentType() string {
	return "lock_manager"
}

var _ introspection.Introspectable = (*Manager)(nil)
var _ introspection.Component = (*Manager)(nil)

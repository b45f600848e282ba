package lock

import (
	"sort"
	"sync"
	"time"

	"github.com/aretw0/octonote/pkg/core"
)

type entry struct {
	holder     string
	acquiredAt time.Time
	lastSeen   time.Time
}

// Manager is the lock table. The zero value is not usable; use New.
type Manager struct {
	mu          sync.RWMutex
	locks       map[string]entry
	idleTimeout time.Duration
	now         func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithIdleTimeout makes locks expire when they have not been seen for d.
// Zero or negative disables expiry.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.idleTimeout = d
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		locks: make(map[string]entry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire locks id for holder. Re-acquiring an own lock succeeds and reports
// fresh=false. A lock held by someone else yields a LockConflictError.
func (m *Manager) Acquire(id, holder string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.liveLocked(id, now); ok {
		if e.holder != holder {
			return false, &core.LockConflictError{ID: id, Holder: e.holder}
		}
		e.lastSeen = now
		m.locks[id] = e
		return false, nil
	}

	m.locks[id] = entry{holder: holder, acquiredAt: now, lastSeen: now}
	return true, nil
}

// Reserve locks id only if nobody, holder included, holds it.
func (m *Manager) Reserve(id, holder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserveLocked(id, holder, m.now())
}

// ReserveAll reserves every id or none of them.
func (m *Manager) ReserveAll(ids []string, holder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var reserved []string
	for _, id := range ids {
		if err := m.reserveLocked(id, holder, now); err != nil {
			for _, r := range reserved {
				delete(m.locks, r)
			}
			return err
		}
		reserved = append(reserved, id)
	}
	return nil
}

func (m *Manager) reserveLocked(id, holder string, now time.Time) error {
	if e, ok := m.liveLocked(id, now); ok {
		return &core.LockConflictError{ID: id, Holder: e.holder}
	}
	m.locks[id] = entry{holder: holder, acquiredAt: now, lastSeen: now}
	return nil
}

// Release unlocks id. Releasing an unlocked id is a no-op; releasing someone
// else's lock yields a ForbiddenError.
func (m *Manager) Release(id, holder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.liveLocked(id, m.now())
	if !ok {
		return nil
	}
	if e.holder != holder {
		return &core.ForbiddenError{
			ID:      id,
			Holder:  e.holder,
			Message: "Note is locked by another user",
		}
	}
	delete(m.locks, id)
	return nil
}

// ReleaseAll drops the locks of ids that holder owns and ignores the rest.
func (m *Manager) ReleaseAll(ids []string, holder string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if e, ok := m.locks[id]; ok && e.holder == holder {
			delete(m.locks, id)
		}
	}
}

// Touch refreshes the idle clock of a lock held by holder.
func (m *Manager) Touch(id, holder string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.liveLocked(id, now); ok && e.holder == holder {
		e.lastSeen = now
		m.locks[id] = e
	}
}

// Status reports the lock state of id.
func (m *Manager) Status(id string) core.LockStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.locks[id]
	if !ok || m.expired(e, m.now()) {
		return core.LockStatus{}
	}
	return core.LockStatus{
		Locked:     true,
		Holder:     e.holder,
		AcquiredAt: e.acquiredAt,
		LastSeen:   e.lastSeen,
	}
}

// Count returns the number of live locks.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	n := 0
	for _, e := range m.locks {
		if !m.expired(e, now) {
			n++
		}
	}
	return n
}

// Holdings returns the sorted IDs locked by holder.
func (m *Manager) Holdings(holder string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	var ids []string
	for id, e := range m.locks {
		if e.holder == holder && !m.expired(e, now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Sweep drops expired locks and returns how many were removed.
func (m *Manager) Sweep() int {
	if m.idleTimeout <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for id, e := range m.locks {
		if m.expired(e, now) {
			delete(m.locks, id)
			n++
		}
	}
	return n
}

// IdleTimeout returns the configured expiry, zero when disabled.
func (m *Manager) IdleTimeout() time.Duration {
	return m.idleTimeout
}

// liveLocked returns the entry for id, dropping it first if it has expired.
// Callers must hold the write lock.
func (m *Manager) liveLocked(id string, now time.Time) (entry, bool) {
	e, ok := m.locks[id]
	if !ok {
		return entry{}, false
	}
	if m.expired(e, now) {
		delete(m.locks, id)
		return entry{}, false
	}
	return e, true
}

func (m *Manager) expired(e entry, now time.Time) bool {
	return m.idleTimeout > 0 && now.Sub(e.lastSeen) > m.idleTimeout
}

var _ core.Locker = (*Manager)(nil)

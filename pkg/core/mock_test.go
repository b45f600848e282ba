package core_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/octonote/pkg/core"
	"github.com/google/uuid"
)

// MockRepository implements core.Repository in memory.
type MockRepository struct {
	mu      sync.Mutex
	notes   map[string]core.Note
	corrupt map[string]bool
	failOn  map[string]error
	gone    map[string]bool // listed but reported missing by Get
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		notes:   make(map[string]core.Note),
		corrupt: make(map[string]bool),
		failOn:  make(map[string]error),
		gone:    make(map[string]bool),
	}
}

func (m *MockRepository) Create(ctx context.Context, title, content, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.notes[id] = core.Note{ID: id, Title: title, Content: content, LastEditedBy: user, LastEdited: time.Now().UTC()}
	return id, nil
}

func (m *MockRepository) Get(ctx context.Context, id string) (core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.corrupt[id] {
		return core.Note{}, &core.CorruptRecordError{ID: id, Reason: "missing title"}
	}
	n, ok := m.notes[id]
	if !ok || m.gone[id] {
		return core.Note{}, &core.NotFoundError{Kind: "note", ID: id}
	}
	return n, nil
}

func (m *MockRepository) Update(ctx context.Context, id, title, content, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[id]; err != nil {
		return err
	}
	n, ok := m.notes[id]
	if !ok {
		return &core.NotFoundError{Kind: "note", ID: id}
	}
	n.Title, n.Content, n.LastEditedBy = title, content, user
	n.LastEdited = time.Now().UTC()
	m.notes[id] = n
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return &core.NotFoundError{Kind: "note", ID: id}
	}
	delete(m.notes, id)
	return nil
}

func (m *MockRepository) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.notes[id]
	return ok || m.corrupt[id], nil
}

func (m *MockRepository) List(ctx context.Context) ([]core.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.corrupt {
		return nil, &core.CorruptRecordError{ID: id, Reason: "missing title"}
	}
	out := make([]core.Summary, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockRepository) Initialize(ctx context.Context) error { return nil }

// put stores a note under a fixed id.
func (m *MockRepository) put(n core.Note) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[n.ID] = n
}

// MockUsers implements core.UserStore in memory.
type MockUsers struct {
	mu    sync.Mutex
	names []string
}

func (u *MockUsers) List(ctx context.Context) ([]string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.names...), nil
}

func (u *MockUsers) Exists(ctx context.Context, name string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, n := range u.names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

func (u *MockUsers) Add(ctx context.Context, name string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.names = append(u.names, name)
	return nil
}

func (u *MockUsers) Remove(ctx context.Context, name string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, n := range u.names {
		if n == name {
			u.names = append(u.names[:i], u.names[i+1:]...)
			return nil
		}
	}
	return &core.NotFoundError{Kind: "user", ID: name}
}

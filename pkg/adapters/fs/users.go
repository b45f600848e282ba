package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/octonote/pkg/core"
)

// UsersFile is the name of the user list under the data directory.
const UsersFile = "users.txt"

// UserStore keeps registered user names in a flat file, one per line.
// Read-modify-write cycles are serialized by a mutex and written atomically.
type UserStore struct {
	path string
	mu   sync.Mutex
}

// NewUserStore creates a store backed by dataDir/users.txt.
func NewUserStore(dataDir string) *UserStore {
	return &UserStore{path: filepath.Join(dataDir, UsersFile)}
}

// List returns the user names in file order. A missing file means no users.
func (s *UserStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Exists reports whether name is registered.
func (s *UserStore) Exists(ctx context.Context, name string) (bool, error) {
	names, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// Add appends name. Duplicates are rejected.
func (s *UserStore) Add(ctx context.Context, name string) error {
	if err := core.ValidateUserName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.load()
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			return core.NewValidationError("name", "User already exists")
		}
	}
	return s.store(append(names, name))
}

// Remove deletes name.
func (s *UserStore) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.load()
	if err != nil {
		return err
	}
	out := names[:0]
	found := false
	for _, n := range names {
		if n == name {
			found = true
			continue
		}
		out = append(out, n)
	}
	if !found {
		return &core.NotFoundError{Kind: "user", ID: name}
	}
	return s.store(out)
}

func (s *UserStore) load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read users: %w", err)
	}

	names := []string{}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func (s *UserStore) store(names []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := writeFileAtomic(s.path, []byte(strings.Join(names, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}
	return nil
}

// State implements introspection.Introspectable.
func (s *UserStore) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, err := s.load()
	if err != nil {
		return UserStoreState{Path: s.path, Error: err.Error()}
	}
	return UserStoreState{Path: s.path, Users: len(names)}
}

// ComponentType implements introspection.Component.
func (s *UserStore) ComponentType() string {
	return "user_store"
}

var _ core.UserStore = (*UserStore)(nil)

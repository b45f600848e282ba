package fs

import (
	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string `json:"path"`
	NotesDir      string `json:"notes_dir"`
	Versioning    bool   `json:"versioning"`
	WatcherActive bool   `json:"watcher_active"`
	Watchers      int    `json:"watchers"`
}

// UserStoreState exposes the user store for observability.
type UserStoreState struct {
	Path  string `json:"path"`
	Users int    `json:"users"`
	Error string `json:"error,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RepositoryState{
		Path:          r.Path,
		NotesDir:      r.notesDir,
		Versioning:    r.config.Versioning,
		WatcherActive: r.watchers > 0,
		Watchers:      r.watchers,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
var _ introspection.Introspectable = (*UserStore)(nil)
var _ introspection.Component = (*UserStore)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if active {
		r.watchers++
	} else if r.watchers > 0 {
		r.watchers--
	}
}

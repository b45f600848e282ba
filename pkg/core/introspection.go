package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryType string `json:"repository_type"`
	LockerType     string `json:"locker_type"`
	ActiveLocks    int    `json:"active_locks"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	return ServiceState{
		RepositoryType: componentType(s.repo, "repository"),
		LockerType:     componentType(s.locks, "locker"),
		ActiveLocks:    s.locks.Count(),
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

// Components returns the introspectable collaborators of the service, keyed by component type.
func (s *Service) Components() map[string]any {
	out := map[string]any{"service": s.State()}
	for _, c := range []any{s.repo, s.locks, s.users} {
		comp, ok := c.(introspection.Component)
		if !ok {
			continue
		}
		if in, ok := c.(introspection.Introspectable); ok {
			out[comp.ComponentType()] = in.State()
		}
	}
	return out
}

func componentType(v any, fallback string) string {
	if comp, ok := v.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return fallback
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)

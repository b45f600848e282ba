package octonote

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/octonote/internal/platform"
	"github.com/aretw0/octonote/pkg/core"
	"github.com/aretw0/octonote/pkg/lock"
)

// --- Types ---

// Service is the note editing service.
type Service = core.Service

// Note is a stored note.
type Note = core.Note

// Summary is the listing view of a note.
type Summary = core.Summary

// Event is a change observed on a note record.
type Event = core.Event

// --- Configuration ---

// Option defines a functional option for configuring the service.
type Option = platform.Option

// WithVersioning commits every note change to a Git repository inside the notes directory.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the use of a temporary data directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety toggles the sandbox applied under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithMustExist ensures the data directory already exists.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom note store.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithUserStore allows injecting a custom user store.
func WithUserStore(users core.UserStore) Option {
	return platform.WithUserStore(users)
}

// WithLockManager shares a lock manager between services.
func WithLockManager(m *lock.Manager) Option {
	return platform.WithLockManager(m)
}

// WithLockIdleTimeout expires locks whose holder has been silent for d. Zero disables expiry.
func WithLockIdleTimeout(d time.Duration) Option {
	return platform.WithLockIdleTimeout(d)
}

// --- Factory ---

// New creates a Service rooted at dataDir, initializing storage if needed.
func New(ctx context.Context, dataDir string, opts ...Option) (*Service, error) {
	app, err := platform.New(ctx, dataDir, opts...)
	if err != nil {
		return nil, err
	}
	return app.Service, nil
}

// --- Safety ---

// ResolveDataDir determines the actual data directory based on the dev sandbox rules.
func ResolveDataDir(userPath string, forceTemp bool) string {
	return platform.ResolveDataDir(userPath, forceTemp)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

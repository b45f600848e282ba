// Package platform is the composition root: it builds the note store, user
// store, lock table and service from options and hands them out as an App.
package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/octonote/internal/config"
	"github.com/aretw0/octonote/pkg/adapters/fs"
	"github.com/aretw0/octonote/pkg/core"
	"github.com/aretw0/octonote/pkg/lock"
)

// App bundles the wired components. Service is the only entry point callers
// need; the rest is exposed for status reporting and lock sweeping.
type App struct {
	Service *core.Service
	Repo    core.Repository
	Users   core.UserStore
	Locks   *lock.Manager
	DataDir string
	Logger  *slog.Logger
}

// New wires an App rooted at dataDir and initializes its storage.
//
//	app, err := platform.New(ctx, "/data/octonote", platform.WithVersioning(true))
func New(ctx context.Context, dataDir string, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	useTemp := o.forceTemp || (o.devSafety && IsDevRun())
	resolved := ResolveDataDir(dataDir, useTemp)
	if resolved != dataDir {
		logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", dataDir, "resolved_path", resolved)
	}

	repo := o.repository
	if repo == nil {
		repo = fs.NewRepository(fs.Config{
			Path:        resolved,
			Versioning:  o.versioning,
			MustExist:   o.mustExist,
			Concurrency: o.concurrency,
			Logger:      logger,
		})
	}
	if err := repo.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize note store: %w", err)
	}

	users := o.users
	if users == nil {
		users = fs.NewUserStore(resolved)
	}

	locks := o.locks
	if locks == nil {
		locks = lock.New(lock.WithIdleTimeout(o.idleTimeout))
	}

	return &App{
		Service: core.NewService(repo, locks, users, logger),
		Repo:    repo,
		Users:   users,
		Locks:   locks,
		DataDir: resolved,
		Logger:  logger,
	}, nil
}

// FromConfig translates a loaded configuration into options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithVersioning(cfg.Storage.Versioning),
		WithLockIdleTimeout(cfg.Locks.IdleTimeout()),
	}
}

// Watch streams record changes when the note store supports it.
func (a *App) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, ok := a.Repo.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("note store does not support watching")
	}
	return w.Watch(ctx, pattern)
}

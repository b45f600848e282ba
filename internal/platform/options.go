package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/octonote/pkg/core"
	"github.com/aretw0/octonote/pkg/lock"
)

// options holds the internal configuration for an octonote App.
type options struct {
	repository  core.Repository
	users       core.UserStore
	locks       *lock.Manager
	logger      *slog.Logger
	versioning  bool
	mustExist   bool
	forceTemp   bool
	devSafety   bool
	idleTimeout time.Duration
	concurrency int
}

// Option defines a functional option for configuring an App.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		devSafety: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a custom note store (e.g. an in-memory fake).
// If provided, the filesystem store is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithUserStore injects a custom user store.
func WithUserStore(users core.UserStore) Option {
	return func(o *options) {
		o.users = users
	}
}

// WithLockManager injects a pre-built lock table.
func WithLockManager(m *lock.Manager) Option {
	return func(o *options) {
		o.locks = m
	}
}

// WithVersioning commits every note write to Git. Disabled by default.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = enabled
	}
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true) the data directory is re-rooted under the system temp dir
// so a development run never touches real notes.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithLockIdleTimeout expires edit locks not refreshed for d. Zero disables expiry.
func WithLockIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = d
	}
}

// WithListConcurrency bounds parallel record reads when listing.
func WithListConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

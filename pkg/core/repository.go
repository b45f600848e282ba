package core

import "context"

// Repository defines the contract for storing and retrieving note records.
// Adhering to this interface keeps the core independent of the storage
// mechanism (plain files, Git-versioned files, ...).
type Repository interface {
	// Create writes a new record under a freshly generated ID and returns it.
	Create(ctx context.Context, title, content, user string) (string, error)

	// Get reads the record for id.
	Get(ctx context.Context, id string) (Note, error)

	// Update fully rewrites an existing record. It fails with NotFoundError if absent.
	Update(ctx context.Context, id, title, content, user string) error

	// Delete removes the record for id.
	Delete(ctx context.Context, id string) error

	// Exists reports whether a record for id is present.
	Exists(ctx context.Context, id string) (bool, error)

	// List returns a summary of every record, in storage enumeration order.
	List(ctx context.Context) ([]Summary, error)

	// Initialize ensures the underlying storage is ready (directories, git init).
	Initialize(ctx context.Context) error
}

// Watchable is implemented by repositories that can stream record changes.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Locker is the lock manager contract used by the Service.
// Holders are user names, or internal identities for system operations.
type Locker interface {
	// Acquire locks id for holder. fresh is false when holder already held it.
	Acquire(id, holder string) (fresh bool, err error)

	// Reserve locks id only when nobody (holder included) holds it.
	Reserve(id, holder string) error

	// ReserveAll reserves every id or none of them.
	ReserveAll(ids []string, holder string) error

	// Release unlocks id. Releasing an unlocked id is a no-op.
	Release(id, holder string) error

	// ReleaseAll releases every id held by holder, ignoring ids it does not hold.
	ReleaseAll(ids []string, holder string)

	// Touch refreshes the idle timer of a lock held by holder.
	Touch(id, holder string)

	// Status reports the lock state of id.
	Status(id string) LockStatus

	// Count returns the number of active locks.
	Count() int
}

// UserStore persists the flat list of user names.
type UserStore interface {
	List(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Add(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
}

type contextKey string

// ChangeReasonKey is the context key for passing a change reason (commit message)
// to versioned repositories during Create/Update/Delete.
const ChangeReasonKey contextKey = "change_reason"

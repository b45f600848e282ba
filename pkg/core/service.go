package core

import (
	"context"
	"io"
	"log/slog"
)

// Internal lock holders for system operations. User names cannot start with
// ReservedHolderPrefix, so these never collide with a real user.
const (
	deleteHolder         = ReservedHolderPrefix + "delete"
	transferHolderPrefix = ReservedHolderPrefix + "transfer:"
)

// Service implements the edit-controller contract on top of a Repository,
// a Locker and a UserStore. All three are passed in explicitly.
type Service struct {
	repo   Repository
	locks  Locker
	users  UserStore
	logger *slog.Logger
}

// NewService creates a new Service. A nil logger discards output.
func NewService(repo Repository, locks Locker, users UserStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		repo:   repo,
		locks:  locks,
		users:  users,
		logger: logger,
	}
}

// --- Edit controller ---

// OpenNote acquires the edit lock for user and returns the note.
// A lock taken by this call is released again if the read fails.
func (s *Service) OpenNote(ctx context.Context, id, user string) (Note, error) {
	if err := ValidateEditor("user", user); err != nil {
		return Note{}, err
	}
	if err := s.requireNote(ctx, id); err != nil {
		return Note{}, err
	}

	fresh, err := s.locks.Acquire(id, user)
	if err != nil {
		return Note{}, err
	}

	n, err := s.repo.Get(ctx, id)
	if err != nil {
		if fresh {
			_ = s.locks.Release(id, user)
		}
		s.logReadError(id, err)
		return Note{}, err
	}

	s.logger.Debug("note opened", "id", id, "user", user)
	return n, nil
}

// SaveNote rewrites a note on behalf of user (last writer wins).
// It fails if another user holds the lock. When nobody holds it, a lock is held
// for the duration of the write only.
func (s *Service) SaveNote(ctx context.Context, id, title, content, user string) error {
	if err := ValidateNoteFields(title, content, user); err != nil {
		return err
	}
	if err := ValidateID(id); err != nil {
		return err
	}

	fresh, err := s.locks.Acquire(id, user)
	if err != nil {
		return err
	}
	if fresh {
		defer func() { _ = s.locks.Release(id, user) }()
	} else {
		s.locks.Touch(id, user)
	}

	if err := s.repo.Update(ctx, id, title, content, user); err != nil {
		return err
	}

	s.logger.Debug("note saved", "id", id, "user", user)
	return nil
}

// CloseNote releases the edit lock held by user.
func (s *Service) CloseNote(ctx context.Context, id, user string) error {
	if err := ValidateEditor("user", user); err != nil {
		return err
	}
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := s.locks.Release(id, user); err != nil {
		return err
	}
	s.logger.Debug("note closed", "id", id, "user", user)
	return nil
}

// LockNote acquires the edit lock without reading the note.
func (s *Service) LockNote(ctx context.Context, id, user string) error {
	if err := ValidateEditor("user", user); err != nil {
		return err
	}
	if err := s.requireNote(ctx, id); err != nil {
		return err
	}
	_, err := s.locks.Acquire(id, user)
	return err
}

// LockStatus reports who, if anyone, holds the edit lock of id.
func (s *Service) LockStatus(ctx context.Context, id string) (LockStatus, error) {
	if err := ValidateID(id); err != nil {
		return LockStatus{}, err
	}
	return s.locks.Status(id), nil
}

// --- Notes ---

// CreateNote stores a new note and returns its generated ID.
// No lock is taken.
func (s *Service) CreateNote(ctx context.Context, title, content, user string) (string, error) {
	if err := ValidateNoteFields(title, content, user); err != nil {
		return "", err
	}

	id, err := s.repo.Create(ctx, title, content, user)
	if err != nil {
		return "", err
	}

	s.logger.Info("note created", "id", id, "user", user)
	return id, nil
}

// GetNote reads a note without locking it.
func (s *Service) GetNote(ctx context.Context, id string) (Note, error) {
	if err := ValidateID(id); err != nil {
		return Note{}, err
	}
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logReadError(id, err)
	}
	return n, err
}

// DeleteNote removes a note. Any active lock, whoever holds it, blocks the delete.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.requireNote(ctx, id); err != nil {
		return err
	}

	if err := s.locks.Reserve(id, deleteHolder); err != nil {
		return err
	}
	defer func() { _ = s.locks.Release(id, deleteHolder) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("note deleted", "id", id)
	return nil
}

// ListNotes returns every note summary in storage enumeration order.
// It never takes a lock.
func (s *Service) ListNotes(ctx context.Context) ([]Summary, error) {
	notes, err := s.repo.List(ctx)
	if err != nil {
		s.logReadError("", err)
		return nil, err
	}
	return notes, nil
}

// CountByUser returns how many notes were last written by user.
func (s *Service) CountByUser(ctx context.Context, user string) (int, error) {
	notes, err := s.ListNotes(ctx)
	if err != nil {
		return 0, err
	}
	return len(ownedBy(notes, user)), nil
}

// --- Users ---

// ListUsers returns all registered user names.
func (s *Service) ListUsers(ctx context.Context) ([]string, error) {
	return s.users.List(ctx)
}

// CreateUser registers a new user name.
func (s *Service) CreateUser(ctx context.Context, name string) error {
	if err := ValidateUserName(name); err != nil {
		return err
	}
	exists, err := s.users.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return NewValidationError("name", "User already exists")
	}
	if err := s.users.Add(ctx, name); err != nil {
		return err
	}
	s.logger.Info("user created", "user", name)
	return nil
}

// DeleteUser removes a user. The user must not own any note anymore.
func (s *Service) DeleteUser(ctx context.Context, name string) error {
	if err := s.requireUser(ctx, name); err != nil {
		return err
	}

	owned, err := s.CountByUser(ctx, name)
	if err != nil {
		return err
	}
	if owned > 0 {
		return &ForbiddenError{
			Holder:  name,
			Message: "User still owns notes; transfer them first",
		}
	}

	if err := s.users.Remove(ctx, name); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user", name)
	return nil
}

// --- Helpers ---

func (s *Service) requireNote(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{Kind: "note", ID: id}
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, name string) error {
	if err := RequireField("name", name); err != nil {
		return err
	}
	exists, err := s.users.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{Kind: "user", ID: name}
	}
	return nil
}

// logReadError reports corrupt records loudly; they are integrity faults.
func (s *Service) logReadError(id string, err error) {
	var corrupt *CorruptRecordError
	if As(err, &corrupt) {
		s.logger.Error("corrupt note record", "id", corrupt.ID, "reason", corrupt.Reason)
		return
	}
	if id != "" {
		s.logger.Debug("note read failed", "id", id, "error", err)
	}
}

func ownedBy(notes []Summary, user string) []string {
	var ids []string
	for _, n := range notes {
		if n.LastEditedBy == user {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

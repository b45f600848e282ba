package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/octonote/pkg/core"
	"github.com/aretw0/octonote/pkg/git"
)

const (
	// NotesDir is the directory under the data dir that holds one record per note.
	NotesDir = "notes"
	// RecordExt is the file extension of note records.
	RecordExt = ".txt"
)

// Repository implements core.Repository using one text file per note,
// optionally versioned with Git.
type Repository struct {
	Path     string
	notesDir string
	git      *git.Client
	config   Config
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	watchers int
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path        string // data directory; records live in Path/notes
	Versioning  bool   // commit every write to a Git repository in the notes directory
	MustExist   bool   // fail Initialize instead of creating a missing data directory
	Concurrency int    // parallel record reads in List; zero means GOMAXPROCS
	Logger      *slog.Logger
	Clock       func() time.Time
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	notesDir := filepath.Join(config.Path, NotesDir)
	return &Repository{
		Path:     config.Path,
		notesDir: notesDir,
		git:      git.NewClient(notesDir, git.DefaultLockFile, logger),
		config:   config,
		logger:   logger,
		now:      now,
	}
}

// NotesPath returns the directory holding the records.
func (r *Repository) NotesPath() string {
	return r.notesDir
}

// Initialize performs the necessary setup for the repository (mkdir, git init).
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data path does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat data path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", r.Path)
		}
	}
	if err := os.MkdirAll(r.notesDir, 0755); err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}

	if !r.config.Versioning {
		return nil
	}
	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if err := r.git.Init(ctx); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		unlock, err := r.git.Lock(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()

		if err := r.git.Add(ctx, ".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(ctx, "chore: configure ignore rules", ""); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore keeps the git lock file and atomic-write temp files out of history.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.notesDir, ".gitignore")
	wanted := []string{r.git.LockFile(), TempFilePrefix + "*"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, w := range wanted {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Create writes a new record with a generated ID. It never overwrites.
func (r *Repository) Create(ctx context.Context, title, content, user string) (string, error) {
	if err := core.ValidateNoteFields(title, content, user); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	path := r.recordPath(id)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("record %s already exists", id)
	}

	n := core.Note{
		ID:           id,
		Title:        title,
		Content:      content,
		LastEditedBy: user,
		LastEdited:   r.timestamp(time.Time{}),
	}
	if err := writeFileAtomic(path, encodeRecord(n), 0644); err != nil {
		return "", fmt.Errorf("failed to write record: %w", err)
	}
	if err := r.commit(ctx, id, "create "+id, user, false); err != nil {
		return "", err
	}
	return id, nil
}

// Get reads and decodes a record.
func (r *Repository) Get(ctx context.Context, id string) (core.Note, error) {
	if err := core.ValidateID(id); err != nil {
		return core.Note{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Note{}, err
	}
	return r.read(id)
}

// Update overwrites an existing record. The editor becomes user and the
// timestamp becomes now, never earlier than the stored one.
func (r *Repository) Update(ctx context.Context, id, title, content, user string) error {
	if err := core.ValidateID(id); err != nil {
		return err
	}
	if err := core.ValidateNoteFields(title, content, user); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var previous time.Time
	old, err := r.read(id)
	switch {
	case err == nil:
		previous = old.LastEdited
	case core.Is(err, core.ErrNotFound):
		return err
	case core.Is(err, core.ErrCorruptRecord):
		r.logger.Warn("overwriting corrupt record", "id", id, "error", err)
	default:
		return err
	}

	n := core.Note{
		ID:           id,
		Title:        title,
		Content:      content,
		LastEditedBy: user,
		LastEdited:   r.timestamp(previous),
	}
	if err := writeFileAtomic(r.recordPath(id), encodeRecord(n), 0644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return r.commit(ctx, id, "update "+id, user, false)
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := core.ValidateID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := r.recordPath(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &core.NotFoundError{Kind: "note", ID: id}
	}

	if r.config.Versioning {
		return r.commit(ctx, id, "delete "+id, "", true)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove record: %w", err)
	}
	return nil
}

// Exists reports whether a record exists for id.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	if err := core.ValidateID(id); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(r.recordPath(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat record: %w", err)
}

// List decodes every record in directory order. Records are read in parallel;
// the first corrupt record fails the whole listing.
func (r *Repository) List(ctx context.Context) ([]core.Summary, error) {
	entries, err := os.ReadDir(r.notesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []core.Summary{}, nil
		}
		return nil, fmt.Errorf("failed to read notes directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if id, ok := recordID(e); ok {
			ids = append(ids, id)
		}
	}

	results := make([]*core.Summary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := r.read(id)
			if core.Is(err, core.ErrNotFound) {
				// Deleted after the directory scan.
				return nil
			}
			if err != nil {
				return err
			}
			s := n.Summary()
			results[i] = &s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]core.Summary, 0, len(results))
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *Repository) read(id string) (core.Note, error) {
	data, err := os.ReadFile(r.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return core.Note{}, &core.NotFoundError{Kind: "note", ID: id}
		}
		return core.Note{}, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	return decodeRecord(id, data)
}

// commit records a write in Git when versioning is on. The context change
// reason, if present, replaces the default message.
func (r *Repository) commit(ctx context.Context, id, msg, author string, remove bool) error {
	if !r.config.Versioning {
		return nil
	}

	unlock, err := r.git.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	filename := id + RecordExt
	if remove {
		if err := r.git.Rm(ctx, filename); err != nil {
			return fmt.Errorf("failed to git rm: %w", err)
		}
	} else if err := r.git.Add(ctx, filename); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}

	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	if err := r.git.Commit(ctx, msg, author); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// timestamp returns the current time at millisecond precision, clamped so it
// is never before previous.
func (r *Repository) timestamp(previous time.Time) time.Time {
	now := r.now().UTC().Truncate(time.Millisecond)
	if now.Before(previous) {
		return previous.UTC().Truncate(time.Millisecond)
	}
	return now
}

func (r *Repository) recordPath(id string) string {
	return filepath.Join(r.notesDir, id+RecordExt)
}

func (r *Repository) concurrency() int {
	if r.config.Concurrency > 0 {
		return r.config.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// recordID maps a directory entry to a note ID. Temp files, hidden files,
// directories and foreign extensions are not records.
func recordID(e os.DirEntry) (string, bool) {
	name := e.Name()
	if e.IsDir() || !strings.HasSuffix(name, RecordExt) {
		return "", false
	}
	if strings.HasPrefix(name, TempFilePrefix) || strings.HasPrefix(name, ".") {
		return "", false
	}
	id := strings.TrimSuffix(name, RecordExt)
	if core.ValidateID(id) != nil {
		return "", false
	}
	return id, true
}

var _ core.Repository = (*Repository)(nil)

package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/octonote/internal/config"
	"github.com/aretw0/octonote/internal/platform"
	"github.com/aretw0/octonote/pkg/adapters/fs"
	"github.com/aretw0/octonote/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), "data")

	app, err := platform.New(ctx, dataDir)
	require.NoError(t, err)
	assert.Equal(t, dataDir, app.DataDir, "temp dirs are trusted by the dev sandbox")

	_, err = os.Stat(filepath.Join(dataDir, fs.NotesDir))
	require.NoError(t, err)

	require.NoError(t, app.Service.CreateUser(ctx, "alice"))
	id, err := app.Service.CreateNote(ctx, "t", "c", "alice")
	require.NoError(t, err)

	_, err = app.Service.OpenNote(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, app.Locks.Count())

	data, err := os.ReadFile(filepath.Join(dataDir, fs.UsersFile))
	require.NoError(t, err)
	assert.Equal(t, "alice", string(data))
}

func TestNew_MustExist(t *testing.T) {
	_, err := platform.New(context.Background(), filepath.Join(t.TempDir(), "missing"), platform.WithMustExist(true))
	assert.Error(t, err)
}

func TestNew_InjectedLockManager(t *testing.T) {
	m := lock.New()
	app, err := platform.New(context.Background(), t.TempDir(), platform.WithLockManager(m))
	require.NoError(t, err)
	assert.Same(t, m, app.Locks)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Locks.IdleTimeoutMinutes = 2

	app, err := platform.New(context.Background(), t.TempDir(), platform.FromConfig(cfg)...)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, app.Locks.IdleTimeout())
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := platform.New(ctx, t.TempDir())
	require.NoError(t, err)

	events, err := app.Watch(ctx, "*")
	require.NoError(t, err)

	id, err := app.Service.CreateNote(ctx, "t", "c", "alice")
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, id, e.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/octonote/internal/httpapi"
	"github.com/aretw0/octonote/internal/platform"
	"github.com/aretw0/octonote/pkg/adapters/fs"
)

type harness struct {
	t   *testing.T
	app *platform.App
	srv http.Handler
}

func newHarness(t *testing.T, users ...string) *harness {
	t.Helper()
	ctx := context.Background()

	app, err := platform.New(ctx, t.TempDir())
	require.NoError(t, err)
	for _, u := range users {
		require.NoError(t, app.Service.CreateUser(ctx, u))
	}

	return &harness{t: t, app: app, srv: httpapi.New(app.Service).Handler()}
}

func (h *harness) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (h *harness) createNote(title, content, user string) string {
	h.t.Helper()
	rec, out := h.do("POST", "/api/notes", map[string]string{"title": title, "content": content, "user": user})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return out["id"].(string)
}

func TestNoteLifecycle(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	id := h.createNote("Groceries", "milk\neggs", "alice")

	// Alice opens the note and takes the lock.
	rec, out := h.do("GET", "/api/notes/"+id+"?user=alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Groceries", out["title"])
	assert.Equal(t, "milk\neggs", out["content"])
	assert.Equal(t, "alice", out["lastEditedBy"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	// Bob is refused.
	rec, out = h.do("GET", "/api/notes/"+id+"?user=bob", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Note is locked", out["error"])
	assert.Equal(t, "alice", out["user"])

	rec, out = h.do("PUT", "/api/notes/"+id, map[string]string{"title": "Groceries", "content": "milk", "user": "bob"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "alice", out["user"])

	rec, out = h.do("GET", "/api/notes/"+id+"/lock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["locked"])
	assert.Equal(t, "alice", out["user"])

	rec, out = h.do("PUT", "/api/notes/"+id, map[string]string{"title": "Groceries", "content": "milk", "user": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])

	// Bob cannot release Alice's lock.
	rec, out = h.do("POST", "/api/notes/"+id+"/unlock", map[string]string{"user": "bob"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Note is locked by another user", out["error"])
	assert.Equal(t, "alice", out["user"])

	rec, _ = h.do("POST", "/api/notes/"+id+"/release", map[string]string{"user": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out = h.do("GET", "/api/notes/"+id+"/lock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"locked": false}, out)

	rec, _ = h.do("GET", "/api/notes/"+id+"?user=bob", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListNotes(t *testing.T) {
	h := newHarness(t, "alice")

	rec := httptest.NewRecorder()
	h.srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/notes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	h.createNote("one", "1", "alice")
	h.createNote("two", "2", "alice")

	rec = httptest.NewRecorder()
	h.srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/notes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var notes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 2)
	for _, n := range notes {
		assert.NotContains(t, n, "content")
		assert.Equal(t, "alice", n["lastEditedBy"])
	}
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t, "alice")
	id := h.createNote("t", "c", "alice")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		errMsg string
	}{
		{"missing title", "POST", "/api/notes", map[string]string{"content": "c", "user": "alice"}, http.StatusBadRequest, "Title is required"},
		{"missing content", "POST", "/api/notes", map[string]string{"title": "t", "user": "alice"}, http.StatusBadRequest, "Content is required"},
		{"missing user", "POST", "/api/notes", map[string]string{"title": "t", "content": "c"}, http.StatusBadRequest, "User is required"},
		{"bad json", "POST", "/api/notes", "{not json", http.StatusBadRequest, "Invalid request payload"},
		{"open without user", "GET", "/api/notes/" + id, nil, http.StatusBadRequest, "User is required"},
		{"open missing note", "GET", "/api/notes/nope?user=alice", nil, http.StatusNotFound, "Note not found"},
		{"save missing note", "PUT", "/api/notes/nope", map[string]string{"title": "t", "content": "c", "user": "alice"}, http.StatusNotFound, "Note not found"},
		{"lock missing note", "POST", "/api/notes/nope/lock", map[string]string{"user": "alice"}, http.StatusNotFound, "Note not found"},
		{"delete missing note", "DELETE", "/api/notes/nope", nil, http.StatusNotFound, "Note not found"},
		{"delete missing user", "DELETE", "/api/users/ghost", nil, http.StatusNotFound, "User not found"},
		{"unknown api route", "GET", "/api/nothing", nil, http.StatusNotFound, "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := h.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.errMsg, out["error"])
		})
	}
}

func TestDeleteNote(t *testing.T) {
	h := newHarness(t, "alice")
	id := h.createNote("t", "c", "alice")

	rec, _ := h.do("POST", "/api/notes/"+id+"/lock", map[string]string{"user": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out := h.do("DELETE", "/api/notes/"+id, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "alice", out["user"])

	rec, _ = h.do("POST", "/api/notes/"+id+"/unlock", map[string]string{"user": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out = h.do("DELETE", "/api/notes/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])

	_, err := os.Stat(filepath.Join(h.app.DataDir, fs.NotesDir, id+fs.RecordExt))
	assert.True(t, os.IsNotExist(err))
}

func TestUsers(t *testing.T) {
	h := newHarness(t)

	rec, out := h.do("POST", "/api/users", map[string]string{"name": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created successfully", out["message"])

	rec, out = h.do("POST", "/api/users", map[string]string{"name": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", out["error"])

	rec, out = h.do("POST", "/api/users", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", out["field"])

	rec = httptest.NewRecorder()
	h.srv.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["alice"]`, rec.Body.String())

	h.createNote("t", "c", "alice")
	rec, out = h.do("DELETE", "/api/users/alice", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "alice", out["user"])
}

func TestTransfer(t *testing.T) {
	h := newHarness(t, "alice", "bob", "carol")
	h.createNote("a", "1", "alice")
	h.createNote("b", "2", "alice")
	h.createNote("c", "3", "alice")
	h.createNote("d", "4", "bob")

	rec, out := h.do("POST", "/api/users/alice/transfer", map[string]string{"newOwner": "carol"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 3, out["transferred"])

	count, err := h.app.Service.CountByUser(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	rec, out = h.do("POST", "/api/users/alice/transfer", map[string]string{"newOwner": "carol"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, out["transferred"])
	assert.Equal(t, "No notes to transfer", out["message"])

	rec, out = h.do("POST", "/api/users/bob/transfer", map[string]string{"newOwner": "bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "newOwner", out["field"])

	rec, _ = h.do("POST", "/api/users/bob/transfer", map[string]string{"newOwner": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Alice may now leave.
	rec, _ = h.do("DELETE", "/api/users/alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTransferRefusesLockedNotes(t *testing.T) {
	h := newHarness(t, "alice", "bob", "carol")
	id := h.createNote("a", "1", "alice")

	rec, _ := h.do("POST", "/api/notes/"+id+"/lock", map[string]string{"user": "bob"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out := h.do("POST", "/api/users/alice/transfer", map[string]string{"newOwner": "carol"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "bob", out["user"])

	count, err := h.app.Service.CountByUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCorruptRecordIsServerError(t *testing.T) {
	h := newHarness(t, "alice")
	path := filepath.Join(h.app.DataDir, fs.NotesDir, "broken"+fs.RecordExt)
	require.NoError(t, os.WriteFile(path, []byte("no header here"), 0644))

	rec, out := h.do("GET", "/api/notes/broken?user=alice", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Corrupt note record", out["error"])

	rec, out = h.do("GET", "/api/notes/broken/lock", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["locked"], "failed open must not leave the lock behind")

	rec, _ = h.do("GET", "/api/notes", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusAndHealth(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	id := h.createNote("t", "c", "alice")
	rec, _ := h.do("POST", "/api/notes/"+id+"/lock", map[string]string{"user": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out := h.do("GET", "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", out["status"])
	assert.EqualValues(t, 2, out["activeUsers"])
	assert.EqualValues(t, 1, out["totalNotes"])
	assert.EqualValues(t, 1, out["activeLocks"])
	assert.Regexp(t, `^\d+d \d+h \d+m$`, out["uptime"])
	assert.Regexp(t, `^\d+MB / \d+MB$`, out["memory"])

	components, ok := out["components"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, components, "service")
	assert.Contains(t, components, "lock_manager")
	assert.Contains(t, components, "repository")

	rec, out = h.do("GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestStaticDir(t *testing.T) {
	app, err := platform.New(context.Background(), t.TempDir())
	require.NoError(t, err)

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>octonote</h1>"), 0644))

	srv := httpapi.New(app.Service, httpapi.WithStaticDir(static)).Handler()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "octonote")
}

type countingSweeper struct {
	calls chan struct{}
}

func (c *countingSweeper) Sweep() int {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return 0
}

func TestRunShutsDownOnCancel(t *testing.T) {
	app, err := platform.New(context.Background(), t.TempDir())
	require.NoError(t, err)

	sweeper := &countingSweeper{calls: make(chan struct{}, 1)}
	srv := httpapi.New(app.Service,
		httpapi.WithLockSweeper(sweeper, 10*time.Millisecond),
		httpapi.WithShutdownTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	select {
	case <-sweeper.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

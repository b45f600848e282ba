package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/aretw0/octonote/pkg/core"
)

const maxBodyBytes = 1 << 20

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	User    string `json:"user"`
}

type userRequest struct {
	User string `json:"user"`
}

type createUserRequest struct {
	Name string `json:"name"`
}

type transferRequest struct {
	NewOwner string `json:"newOwner"`
}

// statusResponse is the body of GET /api/status.
type statusResponse struct {
	Status      string         `json:"status"`
	Uptime      string         `json:"uptime"`
	Memory      string         `json:"memory"`
	ActiveUsers int            `json:"activeUsers"`
	TotalNotes  int            `json:"totalNotes"`
	ActiveLocks int            `json:"activeLocks"`
	LastUpdated string         `json:"lastUpdated"`
	Components  map[string]any `json:"components,omitempty"`
}

var success = map[string]bool{"success": true}

// decode reads a JSON body into dst. It writes the 400 itself and returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// --- Notes ---

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.svc.ListNotes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []core.Summary{}
	}
	respondJSON(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := s.svc.CreateNote(r.Context(), req.Title, req.Content, req.User)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleOpenNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	user := r.URL.Query().Get("user")

	note, err := s.svc.OpenNote(r.Context(), id, user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, note)
}

func (s *Server) handleSaveNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req noteRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.svc.SaveNote(r.Context(), id, req.Title, req.Content, req.User); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, success)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.svc.DeleteNote(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, success)
}

func (s *Server) handleLockNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req userRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.svc.LockNote(r.Context(), id, req.User); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, success)
}

func (s *Server) handleUnlockNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req userRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.svc.CloseNote(r.Context(), id, req.User); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, success)
}

func (s *Server) handleLockStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	status, err := s.svc.LockStatus(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// --- Users ---

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if users == nil {
		users = []string{}
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.svc.CreateUser(r.Context(), req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.svc.DeleteUser(r.Context(), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, success)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	from := mux.Vars(r)["name"]
	var req transferRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := s.svc.TransferAll(r.Context(), from, req.NewOwner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	message := "No notes to transfer"
	if res.Transferred > 0 {
		message = fmt.Sprintf("Transferred %d notes from %s to %s", res.Transferred, res.From, res.To)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":     message,
		"transferred": res.Transferred,
	})
}

// --- Status ---

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notes, err := s.svc.ListNotes(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	users, err := s.svc.ListUsers(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var locks int
	if st, ok := s.svc.State().(core.ServiceState); ok {
		locks = st.ActiveLocks
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	respondJSON(w, http.StatusOK, statusResponse{
		Status:      "healthy",
		Uptime:      formatUptime(time.Since(s.started)),
		Memory:      fmt.Sprintf("%dMB / %dMB", mem.HeapAlloc>>20, mem.Sys>>20),
		ActiveUsers: len(users),
		TotalNotes:  len(notes),
		ActiveLocks: locks,
		LastUpdated: time.Now().UTC().Format(time.RFC3339Nano),
		Components:  s.svc.Components(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// formatUptime renders d as "Xd Yh Zm".
func formatUptime(d time.Duration) string {
	total := int(d / time.Minute)
	days := total / (24 * 60)
	hours := (total % (24 * 60)) / 60
	minutes := total % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aretw0/octonote/pkg/core"
)

// respondJSON marshals payload and writes it with status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

// respondError sends {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorBody is the wire shape of a failed request.
type errorBody struct {
	Error       string `json:"error"`
	User        string `json:"user,omitempty"`
	Field       string `json:"field,omitempty"`
	Transferred *int   `json:"transferred,omitempty"`
}

// statusFor maps a domain error to its HTTP status and body.
func statusFor(err error) (int, errorBody) {
	var (
		verr      *core.ValidationError
		nf        *core.NotFoundError
		conflict  *core.LockConflictError
		forbidden *core.ForbiddenError
		terr      *core.TransferError
	)

	switch {
	case core.As(err, &terr):
		status, body := statusFor(terr.Err)
		if status == http.StatusInternalServerError {
			body.Error = "Transfer failed"
		}
		n := terr.Transferred
		body.Transferred = &n
		return status, body
	case core.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: verr.Error(), Field: verr.Field}
	case core.As(err, &nf):
		return http.StatusNotFound, errorBody{Error: capitalize(nf.Kind) + " not found"}
	case core.As(err, &conflict):
		return http.StatusConflict, errorBody{Error: "Note is locked", User: conflict.Holder}
	case core.As(err, &forbidden):
		return http.StatusForbidden, errorBody{Error: forbidden.Error(), User: forbidden.Holder}
	case core.Is(err, core.ErrCorruptRecord):
		return http.StatusInternalServerError, errorBody{Error: "Corrupt note record"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "Internal server error"}
	}
}

// writeError translates err for the client and logs server-side faults.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondJSON(w, status, body)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

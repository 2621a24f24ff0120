package handlers

import (
	"net/http"
	"strings"

	"github.com/kacperjurak/thinfilm/internal/processing"
	"github.com/kacperjurak/thinfilm/pkg/models"
)

// SessionHandler exposes one interactive design session: POST /session
// submits a design, POST /session/undo and /session/redo walk the history and
// GET /session returns the latest published state.
type SessionHandler struct {
	session *processing.Session
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(session *processing.Session) *SessionHandler {
	return &SessionHandler{session: session}
}

// ServeHTTP implements the http.Handler interface
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/session"), "/")
	if action == "" && r.Method == http.MethodGet {
		setupCORS(w)
		out, ok := h.session.Latest()
		if !ok {
			writeError(w, "no design evaluated yet", http.StatusNotFound)
			return
		}
		h.write(w, out, true)
		return
	}
	if !preflight(w, r, http.MethodPost) {
		return
	}

	var (
		out       processing.Outcome
		published bool
	)
	switch action {
	case "":
		req := models.NewEvaluateRequest()
		req.Config = h.session.History().Current()
		if !decodeJSON(w, r, &req) {
			return
		}
		out, published = h.session.Submit(r.Context(), req.Config)
	case "undo", "redo":
		var ok bool
		if action == "undo" {
			out, ok, published = h.session.Undo(r.Context())
		} else {
			out, ok, published = h.session.Redo(r.Context())
		}
		if !ok {
			writeError(w, "nothing to "+action, http.StatusConflict)
			return
		}
	default:
		writeError(w, "unknown session action", http.StatusNotFound)
		return
	}
	h.write(w, out, published)
}

func (h *SessionHandler) write(w http.ResponseWriter, out processing.Outcome, published bool) {
	if out.Err != nil && published {
		writeEngineError(w, out.Err)
		return
	}
	hist := h.session.History()
	resp := models.SessionResponse{
		Generation:  out.Generation,
		Config:      out.Config,
		Thicknesses: out.Thicknesses,
		CanUndo:     hist.CanUndo(),
		CanRedo:     hist.CanRedo(),
		Superseded:  !published,
	}
	if out.Result != nil {
		resp.Spectral = out.Result.Spectral
		resp.Angular = out.Result.Angular
	}
	if !published {
		// a newer design replaced this one while it was evaluating
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Close cancels the evaluation in flight.
func (h *SessionHandler) Close() {
	h.session.Close()
}

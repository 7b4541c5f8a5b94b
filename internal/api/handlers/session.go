package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/curator/internal/api/middleware"
	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/Harshitk-cp/curator/internal/service"
)

type SessionHandler struct {
	sessions *service.SessionManager
}

func NewSessionHandler(sessions *service.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionResponse struct {
	ID               string `json:"id"`
	Welcome          string `json:"welcome"`
	CaptureSupported bool   `json:"capture_supported"`
}

type sessionResponse struct {
	ID               string        `json:"id"`
	CaptureSupported bool          `json:"capture_supported"`
	CaptureRunning   bool          `json:"capture_running"`
	PendingHovers    int           `json:"pending_hovers"`
	Belief           domain.Belief `json:"belief"`
}

type targetResponse struct {
	Target string `json:"target"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create(r.UserAgent())
	writeJSON(w, http.StatusCreated, createSessionResponse{
		ID:               s.ID.String(),
		Welcome:          s.Responder.Welcome(),
		CaptureSupported: s.CaptureSupported(),
	})
}

// Get returns the belief snapshot for the debug overlay.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:               s.ID.String(),
		CaptureSupported: s.CaptureSupported(),
		CaptureRunning:   s.Capture.Running(),
		PendingHovers:    s.Hover.Pending(),
		Belief:           s.Tracker.Snapshot(),
	})
}

func (h *SessionHandler) Target(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, targetResponse{Target: s.Tracker.CurrentAttentionTarget()})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	if err := h.sessions.End(s.ID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

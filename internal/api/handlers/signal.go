package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/curator/internal/api/middleware"
	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/Harshitk-cp/curator/internal/knowledge"
)

// SignalHandler accepts the intentional and ambient signals the page reports.
type SignalHandler struct {
	kb *knowledge.Base
}

func NewSignalHandler(kb *knowledge.Base) *SignalHandler {
	return &SignalHandler{kb: kb}
}

var signalKinds = map[string]domain.SignalSource{
	"click":      domain.SourceClick,
	"modal_open": domain.SourceModalOpen,
	"ask":        domain.SourceAskButton,
}

var errNoTarget = errors.New("artifact or section is required")

type signalRequest struct {
	Kind     string `json:"kind"`
	Artifact string `json:"artifact"`
	Section  string `json:"section"`
}

type signalResponse struct {
	Accepted      bool   `json:"accepted"`
	Target        string `json:"target"`
	Reply         string `json:"reply,omitempty"`
	TypingDelayMS int64  `json:"typing_delay_ms,omitempty"`
}

type hoverRequest struct {
	Artifact string `json:"artifact"`
	Section  string `json:"section"`
	State    string `json:"state"`
}

type hoverResponse struct {
	Pending int `json:"pending"`
}

// Signal handles click, modal open and "ask about this" actions. Each is an
// intentional signal with full confidence.
func (h *SignalHandler) Signal(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	var req signalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	source, ok := signalKinds[req.Kind]
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be one of click, modal_open, ask")
		return
	}

	section, err := h.resolve(domain.SectionID(req.Section), domain.ArtifactID(req.Artifact))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	accepted := s.Tracker.Update(domain.Signal{
		Section:    section,
		Artifact:   domain.ArtifactID(req.Artifact),
		Confidence: 1.0,
		Source:     source,
	})

	resp := signalResponse{
		Accepted: accepted,
		Target:   s.Tracker.CurrentAttentionTarget(),
	}
	if source == domain.SourceAskButton {
		reply := s.Responder.Describe()
		resp.Reply = reply.Text
		resp.TypingDelayMS = reply.TypingDelay.Milliseconds()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Hover starts or cancels the dwell timer of a card.
func (h *SignalHandler) Hover(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	var req hoverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Artifact == "" {
		writeError(w, http.StatusBadRequest, "artifact is required")
		return
	}
	artifact := domain.ArtifactID(req.Artifact)

	switch req.State {
	case "enter":
		section, err := h.resolve(domain.SectionID(req.Section), artifact)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.Hover.Enter(section, artifact)
	case "leave":
		s.Hover.Leave(artifact)
	default:
		writeError(w, http.StatusBadRequest, "state must be enter or leave")
		return
	}

	writeJSON(w, http.StatusAccepted, hoverResponse{Pending: s.Hover.Pending()})
}

// Viewport takes a layout snapshot. The visibility signal is computed once
// scrolling settles.
func (h *SignalHandler) Viewport(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	var layout domain.Layout
	if err := decodeJSON(w, r, &layout); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if layout.ViewportHeight <= 0 {
		writeError(w, http.StatusBadRequest, "viewport_height must be positive")
		return
	}

	s.Viewport.Observe(layout)
	w.WriteHeader(http.StatusAccepted)
}

// resolve fills in the section of an artifact and checks both against the
// knowledge base.
func (h *SignalHandler) resolve(section domain.SectionID, artifact domain.ArtifactID) (domain.SectionID, error) {
	if artifact == "" {
		if section == "" {
			return "", errNoTarget
		}
		if _, ok := h.kb.Section(section); !ok {
			return "", knowledge.ErrUnknownSection
		}
		return section, nil
	}

	owner, err := h.kb.SectionOf(artifact)
	if err != nil {
		return "", err
	}
	if section != "" && section != owner {
		return "", errors.New("artifact does not belong to section")
	}
	return owner, nil
}

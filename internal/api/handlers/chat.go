package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/curator/internal/api/middleware"
)

type ChatHandler struct{}

func NewChatHandler() *ChatHandler {
	return &ChatHandler{}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply         string  `json:"reply"`
	Intent        string  `json:"intent,omitempty"`
	Confidence    float64 `json:"confidence"`
	TypingDelayMS int64   `json:"typing_delay_ms"`
}

// Chat answers a visitor message. The client is expected to show a typing
// indicator for typing_delay_ms before revealing the reply.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp := s.Responder.Respond(req.Message)
	writeJSON(w, http.StatusOK, chatResponse{
		Reply:         resp.Text,
		Intent:        resp.Intent,
		Confidence:    resp.Confidence,
		TypingDelayMS: resp.TypingDelay.Milliseconds(),
	})
}

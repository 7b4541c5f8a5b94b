package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/curator/internal/api/middleware"
	"github.com/Harshitk-cp/curator/internal/domain"
	"go.uber.org/zap"
)

const maxEventLimit = 500

var errInvalidLimit = errors.New("limit must be a non-negative integer")

// EventsHandler exposes the recorded attention log. The store is nil when
// no database is configured.
type EventsHandler struct {
	store  domain.AttentionEventStore
	logger *zap.Logger
}

func NewEventsHandler(store domain.AttentionEventStore, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{store: store, logger: logger}
}

type eventsResponse struct {
	Events []domain.AttentionEvent `json:"events"`
}

type similarResponse struct {
	Reference domain.AttentionEvent            `json:"reference"`
	Matches   []domain.AttentionEventWithScore `json:"matches"`
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "event log disabled")
		return
	}
	s := middleware.SessionFromContext(r.Context())

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.store.ListBySession(r.Context(), s.ID, limit)
	if err != nil {
		h.logger.Error("failed to list attention events", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []domain.AttentionEvent{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// Similar finds other capture events, from any session, whose palette is
// closest to this session's most recent capture.
func (h *EventsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "event log disabled")
		return
	}
	s := middleware.SessionFromContext(r.Context())

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.store.ListBySession(r.Context(), s.ID, maxEventLimit)
	if err != nil {
		h.logger.Error("failed to list attention events", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	var ref *domain.AttentionEvent
	for i := range events {
		if len(events[i].Palette) > 0 {
			ref = &events[i]
			break
		}
	}
	if ref == nil {
		writeError(w, http.StatusNotFound, "no capture events for session")
		return
	}

	matches, err := h.store.SimilarPalettes(r.Context(), ref.Palette, ref.ID, limit)
	if err != nil {
		h.logger.Error("failed to search palettes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to search palettes")
		return
	}
	if matches == nil {
		matches = []domain.AttentionEventWithScore{}
	}
	writeJSON(w, http.StatusOK, similarResponse{Reference: *ref, Matches: matches})
}

func parseLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 0 {
		return 0, errInvalidLimit
	}
	return min(limit, maxEventLimit), nil
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/curator/internal/api/middleware"
	"github.com/Harshitk-cp/curator/internal/service"
	"github.com/Harshitk-cp/curator/internal/vision"
	"go.uber.org/zap"
)

const maxFrameBytes = 8 << 20

type CaptureHandler struct {
	logger *zap.Logger
}

func NewCaptureHandler(logger *zap.Logger) *CaptureHandler {
	return &CaptureHandler{logger: logger}
}

type captureStatusResponse struct {
	Running bool `json:"running"`
}

type sampleResponse struct {
	Accepted bool             `json:"accepted"`
	Combined vision.Reading   `json:"combined"`
	Readings []vision.Reading `json:"readings"`
	Target   string           `json:"target"`
}

func (h *CaptureHandler) Start(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	if err := s.Capture.Start(s.UserAgent); err != nil {
		if errors.Is(err, service.ErrCaptureUnavailable) || errors.Is(err, service.ErrCaptureRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start capture")
		return
	}
	writeJSON(w, http.StatusOK, captureStatusResponse{Running: true})
}

func (h *CaptureHandler) Stop(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	s.Capture.Stop()
	writeJSON(w, http.StatusOK, captureStatusResponse{Running: false})
}

// Deny records that the visitor refused the permission prompt.
func (h *CaptureHandler) Deny(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	s.Capture.Deny()
	writeJSON(w, http.StatusOK, captureStatusResponse{Running: false})
}

// Frame replaces the latest captured frame. With ?sample=true the frame is
// analysed immediately and the readings are returned.
func (h *CaptureHandler) Frame(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())

	img, err := vision.Decode(http.MaxBytesReader(w, r.Body, maxFrameBytes))
	if err != nil {
		h.logger.Debug("rejected frame", zap.Error(err))
		if errors.Is(err, vision.ErrFrameTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "frame too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid frame")
		return
	}

	if err := s.Capture.Submit(img); err != nil {
		if errors.Is(err, service.ErrCaptureStopped) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to accept frame")
		return
	}

	if r.URL.Query().Get("sample") != "true" {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	a, accepted, err := s.Capture.Sample()
	if err != nil {
		h.logger.Warn("frame sample failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to analyse frame")
		return
	}
	writeJSON(w, http.StatusOK, sampleResponse{
		Accepted: accepted,
		Combined: a.Combined,
		Readings: a.Readings,
		Target:   s.Tracker.CurrentAttentionTarget(),
	})
}

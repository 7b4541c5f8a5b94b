package service

import (
	"sync"
	"time"

	"github.com/Harshitk-cp/curator/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultHoverDwell = 2 * time.Second
	HoverConfidence   = 0.8
)

type hoverTimer struct {
	timer Timer
}

// HoverTracker turns a pointer resting on a card for the dwell time into a
// sustained hover signal. Leaving the card before then cancels it.
type HoverTracker struct {
	sink   SignalSink
	clock  Clock
	dwell  time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	timers  map[domain.ArtifactID]*hoverTimer
	stopped bool
}

func NewHoverTracker(sink SignalSink, clock Clock, logger *zap.Logger) *HoverTracker {
	return &HoverTracker{
		sink:   sink,
		clock:  clock,
		dwell:  DefaultHoverDwell,
		logger: logger,
		timers: make(map[domain.ArtifactID]*hoverTimer),
	}
}

func (h *HoverTracker) SetDwell(d time.Duration) {
	h.mu.Lock()
	h.dwell = d
	h.mu.Unlock()
}

// Enter arms the dwell timer for a card, replacing any timer already running
// for it.
func (h *HoverTracker) Enter(section domain.SectionID, artifact domain.ArtifactID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}

	if prev, ok := h.timers[artifact]; ok {
		prev.timer.Stop()
	}
	ht := &hoverTimer{}
	ht.timer = h.clock.AfterFunc(h.dwell, func() { h.fire(section, artifact, ht) })
	h.timers[artifact] = ht
}

// Leave cancels the pending timer for a card, if any.
func (h *HoverTracker) Leave(artifact domain.ArtifactID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ht, ok := h.timers[artifact]; ok {
		ht.timer.Stop()
		delete(h.timers, artifact)
	}
}

func (h *HoverTracker) fire(section domain.SectionID, artifact domain.ArtifactID, ht *hoverTimer) {
	h.mu.Lock()
	if h.stopped || h.timers[artifact] != ht {
		h.mu.Unlock()
		return
	}
	delete(h.timers, artifact)
	h.mu.Unlock()

	h.logger.Debug("sustained hover", zap.String("artifact", string(artifact)))
	h.sink.Update(domain.Signal{
		Section:    section,
		Artifact:   artifact,
		Confidence: HoverConfidence,
		Source:     domain.SourceSustainedHover,
	})
}

// Pending returns the number of armed timers.
func (h *HoverTracker) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}

// Stop cancels every pending timer. Later Enter calls are ignored.
func (h *HoverTracker) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for id, ht := range h.timers {
		ht.timer.Stop()
		delete(h.timers, id)
	}
}

package service

import (
	"math"
	"sync"
	"time"

	"github.com/Harshitk-cp/curator/internal/domain"
	"go.uber.org/zap"
)

const (
	// SectionVisibilityThreshold is the visible share a section needs to win.
	SectionVisibilityThreshold = 0.3
	// CardVisibilityThreshold is the visible share a card needs to be named.
	CardVisibilityThreshold = 0.5

	DefaultScrollDebounce = 200 * time.Millisecond
)

// ComputeVisibilitySignal picks the most visible section in the layout and,
// within it, the card closest to the viewport centre. It returns false when
// no section is visible enough.
func ComputeVisibilitySignal(l domain.Layout) (domain.Signal, bool) {
	vh := l.ViewportHeight
	if vh <= 0 {
		return domain.Signal{}, false
	}

	var winner *domain.SectionLayout
	winnerFrac := SectionVisibilityThreshold
	for i := range l.Sections {
		s := &l.Sections[i]
		if f := domain.VisibleFraction(s.Top, s.Height, vh); f > winnerFrac {
			winner, winnerFrac = s, f
		}
	}
	if winner == nil {
		return domain.Signal{}, false
	}

	center := vh / 2
	var card domain.ArtifactID
	cardScore := 0.0
	for _, c := range winner.Cards {
		f := domain.VisibleFraction(c.Top, c.Height, vh)
		if f <= CardVisibilityThreshold {
			continue
		}
		proximity := max(0, 1-math.Abs(c.Top+c.Height/2-center)/(vh/2))
		if weighted := f * (0.7 + 0.3*proximity); weighted > cardScore {
			card, cardScore = c.Artifact, weighted
		}
	}

	if card != "" {
		return domain.Signal{
			Section:    winner.ID,
			Artifact:   card,
			Confidence: cardScore,
			Source:     domain.SourceViewportVisibility,
		}, true
	}
	return domain.Signal{
		Section:    winner.ID,
		Confidence: winnerFrac,
		Source:     domain.SourceViewportVisibility,
	}, true
}

// ViewportWatcher debounces layout snapshots and feeds the last one of each
// burst to the sink.
type ViewportWatcher struct {
	sink   SignalSink
	clock  Clock
	delay  time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	pending *domain.Layout
	timer   Timer
	gen     uint64
	stopped bool
}

func NewViewportWatcher(sink SignalSink, clock Clock, logger *zap.Logger) *ViewportWatcher {
	return &ViewportWatcher{
		sink:   sink,
		clock:  clock,
		delay:  DefaultScrollDebounce,
		logger: logger,
	}
}

func (w *ViewportWatcher) SetDelay(d time.Duration) {
	w.mu.Lock()
	w.delay = d
	w.mu.Unlock()
}

// Observe records a layout and restarts the debounce timer.
func (w *ViewportWatcher) Observe(l domain.Layout) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	w.pending = &l
	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	gen := w.gen
	w.timer = w.clock.AfterFunc(w.delay, func() { w.flush(gen) })
}

func (w *ViewportWatcher) flush(gen uint64) {
	w.mu.Lock()
	if w.stopped || gen != w.gen || w.pending == nil {
		w.mu.Unlock()
		return
	}
	l := *w.pending
	w.pending = nil
	w.timer = nil
	w.mu.Unlock()

	sig, ok := ComputeVisibilitySignal(l)
	if !ok {
		w.logger.Debug("no section visible enough")
		return
	}
	w.sink.Update(sig)
}

// Stop cancels any pending evaluation. Later observations are ignored.
func (w *ViewportWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.pending = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

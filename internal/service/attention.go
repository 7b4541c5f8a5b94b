package service

import (
	"sync"

	"github.com/Harshitk-cp/curator/internal/domain"
	"go.uber.org/zap"
)

// SignalSink accepts attention signals. Signal producers only need this.
type SignalSink interface {
	Update(sig domain.Signal) bool
}

// AttentionTarget answers what the visitor is currently looking at.
type AttentionTarget interface {
	CurrentAttentionTarget() string
}

// BeliefObserver is notified after every accepted update with a copy of the
// new belief and the signal that produced it.
type BeliefObserver func(b domain.Belief, sig domain.Signal)

// AttentionTracker owns one visitor's attention belief and arbitrates between
// competing signals.
//
// A signal replaces the belief when its source is intentional, when its
// confidence is above domain.IntentionalThreshold, or when nothing has been
// established yet. Everything else is dropped so that passive signals like
// scroll visibility cannot override a choice the visitor made.
type AttentionTracker struct {
	mu       sync.Mutex
	belief   domain.Belief
	observer BeliefObserver
	clock    Clock
	strict   bool
	logger   *zap.Logger
}

func NewAttentionTracker(clock Clock, logger *zap.Logger) *AttentionTracker {
	return &AttentionTracker{
		belief: domain.Belief{Source: domain.SourceUnknown},
		clock:  clock,
		logger: logger,
	}
}

// SetObserver installs the single observer. Pass nil to remove it.
func (t *AttentionTracker) SetObserver(fn BeliefObserver) {
	t.mu.Lock()
	t.observer = fn
	t.mu.Unlock()
}

// SetStrict makes invalid signals panic instead of being dropped.
func (t *AttentionTracker) SetStrict(strict bool) {
	t.mu.Lock()
	t.strict = strict
	t.mu.Unlock()
}

// Update applies sig under the acceptance rule and reports whether the
// belief changed. Identical signals are not deduplicated: each accepted call
// pushes its own history entry.
func (t *AttentionTracker) Update(sig domain.Signal) bool {
	if err := sig.Validate(); err != nil {
		t.mu.Lock()
		strict := t.strict
		t.mu.Unlock()
		if strict {
			panic(err)
		}
		t.logger.Warn("dropping invalid signal", zap.Error(err))
		return false
	}

	t.mu.Lock()
	if !accepts(&t.belief, sig) {
		t.mu.Unlock()
		t.logger.Debug("signal rejected",
			zap.String("source", string(sig.Source)),
			zap.Float64("confidence", sig.Confidence),
			zap.String("section", string(sig.Section)))
		return false
	}

	t.belief.Section = sig.Section
	t.belief.Artifact = sig.Artifact
	t.belief.Confidence = sig.Confidence
	t.belief.Source = sig.Source
	t.belief.UpdatedAt = t.clock.Now()

	entry := domain.HistoryEntry{Section: sig.Section, Target: t.belief.Target()}
	history := make([]domain.HistoryEntry, 0, domain.MaxHistory)
	history = append(history, entry)
	history = append(history, t.belief.History...)
	if len(history) > domain.MaxHistory {
		history = history[:domain.MaxHistory]
	}
	t.belief.History = history

	snapshot := t.belief.Clone()
	observer := t.observer
	t.mu.Unlock()

	if observer != nil {
		observer(snapshot, sig)
	}
	return true
}

func accepts(b *domain.Belief, sig domain.Signal) bool {
	if sig.Source.IsIntentional() {
		return true
	}
	if sig.Confidence > domain.IntentionalThreshold {
		return true
	}
	return b.Empty()
}

// CurrentAttentionTarget returns the artifact if set, else the section,
// else "".
func (t *AttentionTracker) CurrentAttentionTarget() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.belief.Target()
}

// Snapshot returns a copy of the full belief for debug display.
func (t *AttentionTracker) Snapshot() domain.Belief {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.belief.Clone()
}

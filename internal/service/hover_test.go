package service

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHoverTracker_LeaveBeforeDwellEmitsNothing(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	h := NewHoverTracker(sink, clock, zap.NewNop())

	h.Enter("animations", "Divine Dance")
	clock.Advance(1000 * time.Millisecond)
	h.Leave("Divine Dance")
	clock.Advance(10 * time.Second)

	assert.Empty(t, sink.all())
	assert.Zero(t, h.Pending())
}

func TestHoverTracker_SustainedHoverEmitsOnce(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	h := NewHoverTracker(sink, clock, zap.NewNop())

	h.Enter("animations", "Divine Dance")
	clock.Advance(1999 * time.Millisecond)
	assert.Empty(t, sink.all())

	clock.Advance(time.Millisecond)
	clock.Advance(10 * time.Second)

	signals := sink.all()
	require.Len(t, signals, 1)
	assert.Equal(t, domain.Signal{
		Section:    "animations",
		Artifact:   "Divine Dance",
		Confidence: 0.8,
		Source:     domain.SourceSustainedHover,
	}, signals[0])
}

func TestHoverTracker_ReenterRestartsDwell(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	h := NewHoverTracker(sink, clock, zap.NewNop())

	h.Enter("animations", "Divine Dance")
	clock.Advance(1500 * time.Millisecond)
	h.Enter("animations", "Divine Dance")
	clock.Advance(1500 * time.Millisecond)
	assert.Empty(t, sink.all())

	clock.Advance(500 * time.Millisecond)
	assert.Len(t, sink.all(), 1)
}

func TestHoverTracker_IndependentCards(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	h := NewHoverTracker(sink, clock, zap.NewNop())

	h.Enter("animations", "Divine Dance")
	h.Enter("animations", "Festival of Lights")
	h.Leave("Divine Dance")
	clock.Advance(DefaultHoverDwell)

	signals := sink.all()
	require.Len(t, signals, 1)
	assert.Equal(t, domain.ArtifactID("Festival of Lights"), signals[0].Artifact)
}

func TestHoverTracker_StopCancelsEverything(t *testing.T) {
	clock := newFakeClock()
	sink := &recordingSink{}
	h := NewHoverTracker(sink, clock, zap.NewNop())

	h.Enter("animations", "Divine Dance")
	h.Enter("drawings", "Village Life")
	h.Stop()
	h.Enter("drawings", "Temple Guardians")
	clock.Advance(time.Minute)

	assert.Empty(t, sink.all())
	assert.Zero(t, h.Pending())
}

func TestHoverTracker_OverridesAmbientBelief(t *testing.T) {
	clock := newFakeClock()
	tr := NewAttentionTracker(clock, zap.NewNop())
	h := NewHoverTracker(tr, clock, zap.NewNop())

	tr.Update(domain.Signal{Section: "workflow", Confidence: 0.95, Source: domain.SourceScreenCapture})
	h.Enter("drawings", "Temple Guardians")
	clock.Advance(DefaultHoverDwell)

	b := tr.Snapshot()
	assert.Equal(t, domain.ArtifactID("Temple Guardians"), b.Artifact)
	assert.Equal(t, domain.SourceSustainedHover, b.Source)
	assert.InDelta(t, HoverConfidence, b.Confidence, 1e-9)
}

package service

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/Harshitk-cp/curator/internal/vision"
	"go.uber.org/zap"
)

const DefaultCaptureInterval = 2 * time.Second

var (
	ErrCaptureUnavailable = errors.New("screen capture unavailable on this platform")
	ErrCaptureRunning     = errors.New("screen capture already running")
	ErrCaptureStopped     = errors.New("screen capture not running")
	ErrNoFrame            = errors.New("no frame captured yet")
)

// unsupportedPlatforms are user agent markers of devices without a usable
// display capture API.
var unsupportedPlatforms = []string{"iphone", "ipad", "ipod"}

// CaptureSupported reports whether the platform behind userAgent can offer
// display capture.
func CaptureSupported(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, p := range unsupportedPlatforms {
		if strings.Contains(ua, p) {
			return false
		}
	}
	return true
}

// BeliefReader exposes the current belief.
type BeliefReader interface {
	Snapshot() domain.Belief
}

// CaptureSampler periodically analyses the latest captured frame and turns
// confident readings into screen capture signals. It is the only owner of the
// frame; Stop releases it.
type CaptureSampler struct {
	sink     SignalSink
	beliefs  BeliefReader
	vocab    []vision.TextEntry
	refs     []vision.PaletteRef
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	frame   image.Image
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewCaptureSampler(
	sink SignalSink,
	beliefs BeliefReader,
	vocab []vision.TextEntry,
	refs []vision.PaletteRef,
	logger *zap.Logger,
) *CaptureSampler {
	return &CaptureSampler{
		sink:     sink,
		beliefs:  beliefs,
		vocab:    vocab,
		refs:     refs,
		interval: DefaultCaptureInterval,
		logger:   logger,
	}
}

func (s *CaptureSampler) SetInterval(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}

// Running reports whether the sampler has been started and not stopped.
func (s *CaptureSampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start begins periodic sampling in a background goroutine.
func (s *CaptureSampler) Start(userAgent string) error {
	if !CaptureSupported(userAgent) {
		return ErrCaptureUnavailable
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrCaptureRunning
	}
	s.running = true
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	interval := s.interval
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Info("capture sampler started", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-stopCh:
				s.logger.Info("capture sampler stopped")
				return
			}
		}
	}()
	return nil
}

// Stop halts sampling and releases the held frame. Safe to call repeatedly.
func (s *CaptureSampler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.frame = nil
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

// Deny handles the visitor refusing the capture permission prompt.
// The other signal sources keep working.
func (s *CaptureSampler) Deny() {
	s.logger.Info("capture permission denied")
	s.Stop()
}

// Submit replaces the latest frame.
func (s *CaptureSampler) Submit(frame image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrCaptureStopped
	}
	s.frame = frame
	return nil
}

func (s *CaptureSampler) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("capture analysis panicked", zap.Any("panic", r))
		}
	}()

	if _, _, err := s.Sample(); err != nil {
		if errors.Is(err, ErrNoFrame) {
			s.logger.Debug("no frame to sample")
			return
		}
		s.logger.Warn("capture sample failed", zap.Error(err))
	}
}

// Sample analyses the latest frame once and forwards a signal when the
// combined reading is confident enough. It returns the analysis and whether
// the sink accepted the signal.
func (s *CaptureSampler) Sample() (vision.Analysis, bool, error) {
	s.mu.Lock()
	frame := s.frame
	s.mu.Unlock()
	if frame == nil {
		return vision.Analysis{}, false, ErrNoFrame
	}

	a := vision.Analyze(frame, s.vocab, s.refs)
	c := a.Combined
	if c.Confidence < vision.MinConfidence {
		s.logger.Debug("discarding low confidence capture reading", zap.Float64("confidence", c.Confidence))
		return a, false, nil
	}

	sig := domain.Signal{
		Section:    c.Section,
		Confidence: min(c.Confidence, 1),
		Source:     domain.SourceScreenCapture,
		Palette:    a.Palette,
	}
	switch {
	case c.Modal:
		// A modal shows whatever the visitor last picked.
		b := s.beliefs.Snapshot()
		if b.Empty() {
			return a, false, nil
		}
		sig.Section, sig.Artifact = b.Section, b.Artifact
	case sig.Section == "":
		return a, false, nil
	}

	if err := sig.Validate(); err != nil {
		return a, false, fmt.Errorf("capture signal: %w", err)
	}
	return a, s.sink.Update(sig), nil
}

package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/Harshitk-cp/curator/internal/knowledge"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultSessionIdleTTL    = 30 * time.Minute
	defaultSessionSweepEvery = 1 * time.Minute
)

var ErrSessionNotFound = errors.New("session not found")

// SessionConfig tunes the signal producers of each new session.
type SessionConfig struct {
	HoverDwell          time.Duration
	ScrollDebounce      time.Duration
	CaptureInterval     time.Duration
	IdleTTL             time.Duration
	FlourishProbability float64
	StrictSignals       bool
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		HoverDwell:          DefaultHoverDwell,
		ScrollDebounce:      DefaultScrollDebounce,
		CaptureInterval:     DefaultCaptureInterval,
		IdleTTL:             DefaultSessionIdleTTL,
		FlourishProbability: DefaultFlourishProbability,
	}
}

// Session is one visit to the page: a tracker, a responder and the signal
// producers that feed the tracker.
type Session struct {
	ID        uuid.UUID
	UserAgent string
	CreatedAt time.Time

	Tracker   *AttentionTracker
	Responder *IntentResponder
	Hover     *HoverTracker
	Viewport  *ViewportWatcher
	Capture   *CaptureSampler

	lastActive atomic.Int64
}

// CaptureSupported reports whether this session's platform can capture.
func (s *Session) CaptureSupported() bool {
	return CaptureSupported(s.UserAgent)
}

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

// close tears down everything the chat UI and page held for the session.
func (s *Session) close() {
	s.Hover.Stop()
	s.Viewport.Stop()
	s.Capture.Stop()
	s.Responder.Reset()
}

// SessionManager creates, looks up and expires sessions.
type SessionManager struct {
	kb       *knowledge.Base
	cfg      SessionConfig
	clock    Clock
	recorder EventRecorder
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSessionManager(kb *knowledge.Base, cfg SessionConfig, clock Clock, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		kb:       kb,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
		interval: defaultSessionSweepEvery,
		stopCh:   make(chan struct{}),
	}
}

// SetRecorder routes accepted belief changes of new sessions to rec.
func (m *SessionManager) SetRecorder(rec EventRecorder) {
	m.mu.Lock()
	m.recorder = rec
	m.mu.Unlock()
}

func (m *SessionManager) SetInterval(d time.Duration) {
	m.mu.Lock()
	m.interval = d
	m.mu.Unlock()
}

// Create starts a new session for a visitor.
func (m *SessionManager) Create(userAgent string) *Session {
	id := uuid.New()
	log := m.logger.With(zap.String("session_id", id.String()))

	tracker := NewAttentionTracker(m.clock, log)
	tracker.SetStrict(m.cfg.StrictSignals)

	responder := NewIntentResponder(m.kb, tracker, log)
	responder.SetFlourishProbability(m.cfg.FlourishProbability)

	hover := NewHoverTracker(tracker, m.clock, log)
	hover.SetDwell(m.cfg.HoverDwell)

	viewport := NewViewportWatcher(tracker, m.clock, log)
	viewport.SetDelay(m.cfg.ScrollDebounce)

	capture := NewCaptureSampler(tracker, tracker, m.kb.TextVocabulary(), m.kb.PaletteRefs(), log)
	capture.SetInterval(m.cfg.CaptureInterval)

	now := m.clock.Now()
	s := &Session{
		ID:        id,
		UserAgent: userAgent,
		CreatedAt: now,
		Tracker:   tracker,
		Responder: responder,
		Hover:     hover,
		Viewport:  viewport,
		Capture:   capture,
	}
	s.touch(now)

	m.mu.RLock()
	recorder := m.recorder
	m.mu.RUnlock()
	tracker.SetObserver(func(b domain.Belief, sig domain.Signal) {
		log.Debug("attention updated",
			zap.String("section", string(b.Section)),
			zap.String("artifact", string(b.Artifact)),
			zap.String("source", string(b.Source)),
			zap.Float64("confidence", b.Confidence))
		if recorder == nil {
			return
		}
		recorder.Record(domain.AttentionEvent{
			SessionID:  id,
			Section:    b.Section,
			Artifact:   b.Artifact,
			Source:     b.Source,
			Confidence: b.Confidence,
			Palette:    sig.Palette,
			CreatedAt:  b.UpdatedAt,
		})
	})

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info("session created", zap.Bool("capture_supported", s.CaptureSupported()))
	return s
}

// Get returns a live session and marks it active.
func (m *SessionManager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.clock.Now())
	return s, nil
}

// End tears a session down and forgets it.
func (m *SessionManager) End(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	m.logger.Info("session ended", zap.String("session_id", id.String()))
	return nil
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ExpireIdle ends sessions idle for longer than the configured TTL.
func (m *SessionManager) ExpireIdle() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.clock.Now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.close()
	}
	if len(idle) > 0 {
		m.logger.Info("expired idle sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Start sweeps idle sessions on a periodic schedule in a background goroutine.
func (m *SessionManager) Start() {
	m.mu.RLock()
	interval := m.interval
	m.mu.RUnlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.logger.Info("session expirer started", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				m.ExpireIdle()
			case <-m.stopCh:
				m.logger.Info("session expirer stopped")
				return
			}
		}
	}()
}

// Stop stops the sweeper and ends every remaining session. Safe to call
// repeatedly.
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()

	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}

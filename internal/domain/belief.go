package domain

import (
	"errors"
	"fmt"
	"time"
)

// MaxHistory is the number of past targets a belief remembers.
const MaxHistory = 5

// IntentionalThreshold is the confidence an ambient signal needs to replace
// an existing belief.
const IntentionalThreshold = 0.7

var ErrInvalidSignal = errors.New("invalid signal")

// SectionID names a top-level page region.
type SectionID string

// ArtifactID names a single content item within a section.
type ArtifactID string

// SignalSource indicates what produced a signal.
type SignalSource string

const (
	SourceClick              SignalSource = "click"
	SourceSustainedHover     SignalSource = "sustained_hover"
	SourceModalOpen          SignalSource = "modal_open"
	SourceViewportVisibility SignalSource = "viewport_visibility"
	SourceScreenCapture      SignalSource = "screen_capture"
	SourceAskButton          SignalSource = "ask_button"
	SourceUnknown            SignalSource = "unknown"
)

// IsIntentional reports whether the source reflects a deliberate user action.
// Intentional signals always replace the current belief.
func (s SignalSource) IsIntentional() bool {
	switch s {
	case SourceClick, SourceModalOpen, SourceSustainedHover, SourceAskButton:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known sources.
func (s SignalSource) Valid() bool {
	switch s {
	case SourceClick, SourceSustainedHover, SourceModalOpen, SourceViewportVisibility,
		SourceScreenCapture, SourceAskButton, SourceUnknown:
		return true
	default:
		return false
	}
}

// Signal is one candidate observation about what the visitor is attending to.
type Signal struct {
	Section    SectionID    `json:"section,omitempty"`
	Artifact   ArtifactID   `json:"artifact,omitempty"`
	Confidence float64      `json:"confidence"`
	Source     SignalSource `json:"source"`

	// Palette is the frame histogram behind a screen capture signal.
	Palette []float32 `json:"-"`
}

// Validate checks the caller contract for a signal.
func (s Signal) Validate() error {
	if s.Source == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidSignal)
	}
	if !s.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidSignal, s.Source)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidSignal, s.Confidence)
	}
	if s.Section == "" {
		if s.Artifact != "" {
			return fmt.Errorf("%w: artifact %q without section", ErrInvalidSignal, s.Artifact)
		}
		return fmt.Errorf("%w: no target", ErrInvalidSignal)
	}
	return nil
}

// HistoryEntry records a past belief target.
type HistoryEntry struct {
	Section SectionID `json:"section"`
	Target  string    `json:"target"`
}

// Belief is the tracker's current best guess of visitor attention.
type Belief struct {
	Section    SectionID      `json:"section,omitempty"`
	Artifact   ArtifactID     `json:"artifact,omitempty"`
	Confidence float64        `json:"confidence"`
	Source     SignalSource   `json:"source"`
	History    []HistoryEntry `json:"history"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Empty reports whether nothing has been established yet.
func (b Belief) Empty() bool {
	return b.Section == "" && b.Artifact == ""
}

// Target returns the artifact if set, else the section, else "".
func (b Belief) Target() string {
	if b.Artifact != "" {
		return string(b.Artifact)
	}
	return string(b.Section)
}

// Clone returns a copy that shares no memory with b.
func (b Belief) Clone() Belief {
	c := b
	c.History = append([]HistoryEntry(nil), b.History...)
	return c
}

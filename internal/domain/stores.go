package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AttentionEvent is one accepted belief change, kept for analytics.
type AttentionEvent struct {
	ID         uuid.UUID    `json:"id"`
	SessionID  uuid.UUID    `json:"session_id"`
	Section    SectionID    `json:"section,omitempty"`
	Artifact   ArtifactID   `json:"artifact,omitempty"`
	Source     SignalSource `json:"source"`
	Confidence float64      `json:"confidence"`
	Palette    []float32    `json:"palette,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// AttentionEventWithScore pairs an event with a similarity score.
type AttentionEventWithScore struct {
	AttentionEvent
	Score float32 `json:"score"`
}

type AttentionEventStore interface {
	Create(ctx context.Context, e *AttentionEvent) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]AttentionEvent, error)
	// SimilarPalettes ranks capture events by palette distance, leaving out
	// the event with id exclude.
	SimilarPalettes(ctx context.Context, palette []float32, exclude uuid.UUID, limit int) ([]AttentionEventWithScore, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

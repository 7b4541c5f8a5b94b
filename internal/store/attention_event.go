package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

const defaultEventLimit = 50

type AttentionEventStore struct {
	db *pgxpool.Pool
}

func NewAttentionEventStore(db *pgxpool.Pool) *AttentionEventStore {
	return &AttentionEventStore{db: db}
}

func (s *AttentionEventStore) Create(ctx context.Context, e *domain.AttentionEvent) error {
	var palette *pgvector.Vector
	if len(e.Palette) > 0 {
		v := pgvector.NewVector(e.Palette)
		palette = &v
	}

	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO attention_events (id, session_id, section, artifact, source, confidence, palette, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		id, e.SessionID, e.Section, e.Artifact, e.Source, e.Confidence, palette, createdAt,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *AttentionEventStore) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.AttentionEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, section, artifact, source, confidence, palette, created_at
		 FROM attention_events
		 WHERE session_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list attention events: %w", err)
	}
	defer rows.Close()

	var events []domain.AttentionEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// SimilarPalettes returns the capture events whose palette histogram is
// nearest to palette by L2 distance, excluding the event with id exclude.
// Score is 1/(1+distance).
func (s *AttentionEventStore) SimilarPalettes(ctx context.Context, palette []float32, exclude uuid.UUID, limit int) ([]domain.AttentionEventWithScore, error) {
	if len(palette) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultEventLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, section, artifact, source, confidence, palette, created_at,
		        palette <-> $1 AS distance
		 FROM attention_events
		 WHERE palette IS NOT NULL AND id <> $2
		 ORDER BY palette <-> $1
		 LIMIT $3`,
		pgvector.NewVector(palette), exclude, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similar palettes query: %w", err)
	}
	defer rows.Close()

	var results []domain.AttentionEventWithScore
	for rows.Next() {
		var (
			e        domain.AttentionEventWithScore
			vec      *pgvector.Vector
			distance float64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Section, &e.Artifact, &e.Source, &e.Confidence, &vec, &e.CreatedAt, &distance); err != nil {
			return nil, fmt.Errorf("scan similar palette: %w", err)
		}
		if vec != nil {
			e.Palette = vec.Slice()
		}
		e.Score = float32(1 / (1 + distance))
		results = append(results, e)
	}
	return results, rows.Err()
}

func (s *AttentionEventStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM attention_events WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete attention events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEvent(row pgx.Row) (domain.AttentionEvent, error) {
	var (
		e   domain.AttentionEvent
		vec *pgvector.Vector
	)
	if err := row.Scan(&e.ID, &e.SessionID, &e.Section, &e.Artifact, &e.Source, &e.Confidence, &vec, &e.CreatedAt); err != nil {
		return e, fmt.Errorf("scan attention event: %w", err)
	}
	if vec != nil {
		e.Palette = vec.Slice()
	}
	return e, nil
}

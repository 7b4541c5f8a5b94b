package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultRecorderQueue     = 256
	defaultRetention         = 30 * 24 * time.Hour
	defaultRetentionInterval = 1 * time.Hour
)

// EventRecorder receives accepted belief changes.
type EventRecorder interface {
	Record(e domain.AttentionEvent)
}

// AttentionRecorder writes attention events to a store from a background
// worker so that belief updates never wait on the database.
type AttentionRecorder struct {
	store  domain.AttentionEventStore
	logger *zap.Logger

	queue chan domain.AttentionEvent

	mu        sync.Mutex
	retention time.Duration
	interval  time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewAttentionRecorder(store domain.AttentionEventStore, logger *zap.Logger) *AttentionRecorder {
	return &AttentionRecorder{
		store:     store,
		logger:    logger,
		queue:     make(chan domain.AttentionEvent, defaultRecorderQueue),
		retention: defaultRetention,
		interval:  defaultRetentionInterval,
		stopCh:    make(chan struct{}),
	}
}

func (r *AttentionRecorder) SetRetention(d time.Duration) {
	r.mu.Lock()
	r.retention = d
	r.mu.Unlock()
}

func (r *AttentionRecorder) SetInterval(d time.Duration) {
	r.mu.Lock()
	r.interval = d
	r.mu.Unlock()
}

// Record enqueues e. When the queue is full the event is dropped.
func (r *AttentionRecorder) Record(e domain.AttentionEvent) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	select {
	case r.queue <- e:
	default:
		r.logger.Warn("attention event queue full, dropping event",
			zap.String("session_id", e.SessionID.String()),
			zap.String("source", string(e.Source)))
	}
}

// Start runs the writer and the retention sweep in a background goroutine.
func (r *AttentionRecorder) Start() {
	r.mu.Lock()
	interval, retention := r.interval, r.retention
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		r.logger.Info("attention recorder started", zap.Duration("retention", retention))

		for {
			select {
			case e := <-r.queue:
				r.write(e)
			case <-ticker.C:
				r.prune()
			case <-r.stopCh:
				r.drain()
				r.logger.Info("attention recorder stopped")
				return
			}
		}
	}()
}

// Stop flushes queued events and stops the worker. Safe to call repeatedly.
func (r *AttentionRecorder) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *AttentionRecorder) drain() {
	for {
		select {
		case e := <-r.queue:
			r.write(e)
		default:
			return
		}
	}
}

func (r *AttentionRecorder) write(e domain.AttentionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Create(ctx, &e); err != nil {
		r.logger.Error("failed to record attention event",
			zap.String("session_id", e.SessionID.String()),
			zap.Error(err))
	}
}

func (r *AttentionRecorder) prune() {
	r.mu.Lock()
	retention := r.retention
	r.mu.Unlock()
	if retention <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	deleted, err := r.store.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		r.logger.Error("failed to prune attention events", zap.Error(err))
		return
	}
	if deleted > 0 {
		r.logger.Info("pruned attention events", zap.Int64("count", deleted))
	}
}

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driving"
	"github.com/custodia-labs/athena/internal/logger"
)

// Ensure IngestScheduler implements the interface.
var _ driving.Scheduler = (*IngestScheduler)(nil)

// PassFunc observes the outcome of a scheduled ingestion pass.
type PassFunc func(report *domain.IngestReport, err error)

// IngestScheduler runs ingestion passes on an interval and on demand.
// Passes never overlap: triggers arriving during a pass coalesce into one
// follow-up pass.
type IngestScheduler struct {
	ingest   driving.IngestService
	interval time.Duration
	onPass   PassFunc

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	trigger chan struct{}
	wg      sync.WaitGroup
}

// NewIngestScheduler creates a scheduler. An interval of zero disables the
// ticker so only Trigger starts passes. onPass may be nil.
func NewIngestScheduler(ingest driving.IngestService, interval time.Duration, onPass PassFunc) *IngestScheduler {
	return &IngestScheduler{
		ingest:   ingest,
		interval: interval,
		onPass:   onPass,
		trigger:  make(chan struct{}, 1),
	}
}

// Start runs an initial pass, then loops until Stop is called or ctx ends.
// It blocks for the lifetime of the loop.
func (s *IngestScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.runPass(ctx)

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-tick:
			s.runPass(ctx)
		case <-s.trigger:
			s.runPass(ctx)
		}
	}
}

// Trigger requests a pass as soon as the loop is free. It never blocks.
func (s *IngestScheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (s *IngestScheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *IngestScheduler) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
}

func (s *IngestScheduler) runPass(ctx context.Context) {
	report, err := s.ingest.Ingest(ctx)
	switch {
	case errors.Is(err, domain.ErrIngestInProgress):
		logger.Debug("scheduler: pass skipped, another is running")
		return
	case err != nil && ctx.Err() == nil:
		logger.Error("scheduler: ingestion pass failed: %v", err)
	}
	if s.onPass != nil {
		s.onPass(report, err)
	}
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/quickpad-go/internal/config"
	"github.com/user/quickpad-go/internal/server"
)

// StatsSource is the part of the store the scheduler reads
type StatsSource interface {
	CountVideos(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// ObserverCounter reports how many front-ends are watching the video list
type ObserverCounter interface {
	Observers() int
}

// Scheduler periodically refreshes the store and observer metrics
type Scheduler struct {
	store        StatsSource
	observers    ObserverCounter
	config       *config.StatsConfig
	initialDelay time.Duration
	running      atomic.Bool
	runs         atomic.Int64
	mu           sync.Mutex // skips a tick while the previous refresh is still running
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(store StatsSource, observers ObserverCounter, cfg *config.StatsConfig) *Scheduler {
	return &Scheduler{
		store:        store,
		observers:    observers,
		config:       cfg,
		initialDelay: 5 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// Start runs the first refresh after a short delay and then one per interval
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	log.Info().Dur("delay", s.initialDelay).Msg("Scheduler starting with initial delay")

	select {
	case <-time.After(s.initialDelay):
		s.executeRefresh(ctx)
	case <-s.stopCh:
		log.Info().Msg("Scheduler stopped during initial delay")
		return
	case <-ctx.Done():
		log.Info().Msg("Scheduler context cancelled during initial delay")
		return
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.config.Interval).Msg("Scheduler started periodic execution")

	for {
		select {
		case <-ticker.C:
			s.executeRefresh(ctx)
		case <-s.stopCh:
			log.Info().Msg("Scheduler stopped")
			return
		case <-ctx.Done():
			log.Info().Msg("Scheduler context cancelled")
			return
		}
	}
}

// executeRefresh runs a single refresh unless one is already running
func (s *Scheduler) executeRefresh(ctx context.Context) {
	if !s.TryRun(ctx) {
		log.Warn().Msg("Stats refresh already running, skipping this trigger")
	}
}

// RunOnce reads the store and observer counts and publishes them as metrics
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		server.RecordError("ping")
		return fmt.Errorf("store unreachable: %w", err)
	}

	count, err := s.store.CountVideos(ctx)
	if err != nil {
		server.RecordError("count")
		return fmt.Errorf("failed to count videos: %w", err)
	}

	observers := s.observers.Observers()
	server.UpdateVideoCount(count)
	server.SetObservers(observers)

	log.Debug().
		Int64("videos", count).
		Int("observers", observers).
		Msg("Stats refreshed")
	return nil
}

// TryRun refreshes immediately. Returns false if a refresh is already running.
func (s *Scheduler) TryRun(ctx context.Context) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	s.running.Store(true)
	defer s.running.Store(false)

	startTime := time.Now()
	if err := s.RunOnce(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("Stats refresh failed")
	}
	s.runs.Add(1)

	server.RecordStatsDuration(time.Since(startTime))
	return true
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	log.Info().Msg("Scheduler stopped")
}

// IsRunning returns true if a refresh is currently running
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// Runs returns the number of completed refreshes
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

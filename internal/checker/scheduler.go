package checker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/models"
)

// ActiveSiteSource supplies the sites a cycle should probe.
type ActiveSiteSource interface {
	GetActive() ([]models.Site, error)
}

// RetentionSweeper prunes aged rows according to the retention config.
type RetentionSweeper interface {
	Sweep(now time.Time)
}

// Scheduler is the periodic trigger: every interval it loads the active
// sites and runs one cycle. Cycles never overlap; a tick that arrives while
// the previous cycle is still running is skipped. A second, daily ticker
// drives the retention sweep.
type Scheduler struct {
	Sites     ActiveSiteSource
	Runner    *Runner
	Retention RetentionSweeper
	Interval  time.Duration
	Log       *zap.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
	cycleMu  sync.Mutex
}

const retentionSweepInterval = 24 * time.Hour

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.Log.Info("scheduler started", zap.Duration("interval", s.Interval))

	s.wg.Add(1)
	go s.loop()

	if s.Retention != nil {
		s.wg.Add(1)
		go s.retentionLoop()
	}
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.Log.Info("scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopChan:
			return
		}
	}
}

// RunOnce executes a single cycle, unless one is already in flight.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.cycleMu.TryLock() {
		s.Log.Warn("previous cycle still running, skipping tick")
		return
	}
	defer s.cycleMu.Unlock()

	sites, err := s.Sites.GetActive()
	if err != nil {
		s.Log.Error("failed to load active sites", zap.Error(err))
		return
	}
	if len(sites) == 0 {
		s.Log.Debug("no active sites to check")
		return
	}

	s.Runner.RunCycle(ctx, sites)
}

func (s *Scheduler) retentionLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Retention.Sweep(time.Now().UTC())
		case <-s.stopChan:
			return
		}
	}
}

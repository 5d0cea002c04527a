package checker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/models"
)

type fakeSiteSource struct {
	sites []models.Site
}

func (f *fakeSiteSource) GetActive() ([]models.Site, error) {
	return f.sites, nil
}

func TestRunOnceSkipsOverlappingCycle(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	sites := &fakeSiteStore{}
	results := &fakeResultStore{}
	p := newTestProber(sites, results)
	p.CheckHTTP = func(string) (int, error) {
		once.Do(func() { close(started) })
		<-release
		return 200, nil
	}

	dispatcher := &fakeDispatcher{}
	s := &Scheduler{
		Sites: &fakeSiteSource{sites: makeSites(1)},
		Runner: &Runner{
			Prober:      p,
			Alerts:      dispatcher,
			AlertConfig: &fakeAlertConfigSource{cfg: models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30}},
			BatchSize:   5,
			BatchDelay:  time.Millisecond,
			Log:         zap.NewNop(),
		},
		Interval: time.Hour,
		Log:      zap.NewNop(),
	}

	done := make(chan struct{})
	go func() {
		s.RunOnce(context.Background())
		close(done)
	}()
	<-started

	// A tick that lands while a cycle is in flight returns immediately.
	s.RunOnce(context.Background())

	close(release)
	<-done

	assert.Len(t, results.added, 1, "the overlapping call must not have probed anything")
	assert.Equal(t, 1, dispatcher.calls)
}

func TestSchedulerStartStop(t *testing.T) {
	sites := &fakeSiteStore{}
	results := &fakeResultStore{}
	p := newTestProber(sites, results)

	s := &Scheduler{
		Sites: &fakeSiteSource{},
		Runner: &Runner{
			Prober:      p,
			Alerts:      &fakeDispatcher{},
			AlertConfig: &fakeAlertConfigSource{},
			BatchSize:   5,
			BatchDelay:  time.Millisecond,
			Log:         zap.NewNop(),
		},
		Interval: 10 * time.Millisecond,
		Log:      zap.NewNop(),
	}

	s.Start()
	s.Start() // second start is a no-op
	time.Sleep(25 * time.Millisecond)
	s.Stop()
	s.Stop() // second stop is a no-op
}

package checker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/alerts"
	"github.com/MimoJanra/SitePulse/internal/models"
)

// Dispatcher receives every alert candidate of a finished cycle exactly once.
type Dispatcher interface {
	Dispatch(ctx context.Context, cfg models.AlertConfig, expiry []alerts.ExpiryAlert, failures []alerts.FailureAlert)
}

// AlertConfigSource provides the alert configuration threaded down into the
// probers for the duration of one cycle.
type AlertConfigSource interface {
	Get() (models.AlertConfig, error)
}

// Runner processes the active sites of one cycle in fixed-size batches.
// Sites within a batch run concurrently; batches run strictly one after
// another with a pause in between to bound the outbound request rate.
type Runner struct {
	Prober      *Prober
	Alerts      Dispatcher
	AlertConfig AlertConfigSource
	BatchSize   int
	BatchDelay  time.Duration
	Log         *zap.Logger
}

// RunCycle probes every site once and hands all collected candidates to the
// dispatcher. A failing or panicking site never takes its batch siblings or
// the remaining batches down with it.
func (r *Runner) RunCycle(ctx context.Context, sites []models.Site) {
	if len(sites) == 0 {
		return
	}

	alertCfg, err := r.AlertConfig.Get()
	if err != nil {
		r.Log.Error("failed to load alert config, using threshold defaults", zap.Error(err))
		alertCfg = models.AlertConfig{TLSAlertDays: 14, DomainAlertDays: 30}
	}

	batchSize := r.BatchSize
	if batchSize < 1 {
		batchSize = 5
	}

	var (
		mu          sync.Mutex
		allExpiry   []alerts.ExpiryAlert
		allFailures []alerts.FailureAlert
	)

	batches := 0
	for start := 0; start < len(sites); start += batchSize {
		end := start + batchSize
		if end > len(sites) {
			end = len(sites)
		}
		batch := sites[start:end]
		batches++

		r.Log.Info("processing batch",
			zap.Int("batch", batches),
			zap.Int("sites", len(batch)))

		var wg sync.WaitGroup
		for i := range batch {
			site := batch[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					if rec := recover(); rec != nil {
						r.Log.Error("prober panic",
							zap.String("domain", site.Domain),
							zap.Any("panic", rec))
					}
				}()

				expiry, failures, err := r.Prober.Probe(&site, alertCfg)
				if err != nil {
					r.Log.Error("site check failed",
						zap.String("domain", site.Domain),
						zap.Error(err))
					return
				}

				mu.Lock()
				allExpiry = append(allExpiry, expiry...)
				allFailures = append(allFailures, failures...)
				mu.Unlock()
			}()
		}
		wg.Wait()

		if end < len(sites) {
			select {
			case <-time.After(r.BatchDelay):
			case <-ctx.Done():
				r.Log.Warn("cycle interrupted between batches", zap.Int("processed", end))
				return
			}
		}
	}

	r.Alerts.Dispatch(ctx, alertCfg, allExpiry, allFailures)

	r.Log.Info("cycle finished",
		zap.Int("sites", len(sites)),
		zap.Int("batches", batches),
		zap.Int("expiry_candidates", len(allExpiry)),
		zap.Int("failure_candidates", len(allFailures)))
}

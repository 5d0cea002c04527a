package storage

import (
	"time"

	"go.uber.org/zap"
)

// RetentionSweeper deletes audit entries and check results that have aged
// past the configured retention windows. Errors are logged, never
// propagated: a failing sweep must not disturb monitoring.
type RetentionSweeper struct {
	Config  *RetentionRepo
	Results *ResultRepo
	Audit   *AuditRepo
	Log     *zap.Logger
}

func (s *RetentionSweeper) Sweep(now time.Time) {
	cfg, err := s.Config.Get()
	if err != nil {
		s.Log.Error("retention sweep: load config failed", zap.Error(err))
		return
	}

	if cfg.AuditLogEnabled && cfg.AuditLogRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -cfg.AuditLogRetentionDays)
		deleted, err := s.Audit.DeleteOlderThan(cutoff)
		if err != nil {
			s.Log.Error("retention sweep: audit cleanup failed", zap.Error(err))
		} else {
			s.Log.Info("retention sweep: audit entries pruned",
				zap.Int64("deleted", deleted),
				zap.Int("retention_days", cfg.AuditLogRetentionDays))
		}
	}

	if cfg.CheckResultEnabled && cfg.CheckResultRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -cfg.CheckResultRetentionDays)
		deleted, err := s.Results.DeleteOlderThan(cutoff)
		if err != nil {
			s.Log.Error("retention sweep: check result cleanup failed", zap.Error(err))
		} else {
			s.Log.Info("retention sweep: check results pruned",
				zap.Int64("deleted", deleted),
				zap.Int("retention_days", cfg.CheckResultRetentionDays))
		}
	}
}

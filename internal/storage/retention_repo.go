package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MimoJanra/SitePulse/internal/models"
)

// RetentionRepo stores the single retention configuration row.
type RetentionRepo struct {
	db *sql.DB
}

func NewRetentionRepo(db *sql.DB) *RetentionRepo { return &RetentionRepo{db: db} }

// Get returns the retention configuration, creating the default (cleanup
// disabled, 30-day windows) on first access.
func (r *RetentionRepo) Get() (models.RetentionConfig, error) {
	row := r.db.QueryRow(`
		SELECT id, audit_log_enabled, audit_log_retention_days, check_result_enabled, check_result_retention_days
		FROM retention_config
		LIMIT 1
	`)

	var cfg models.RetentionConfig
	err := row.Scan(&cfg.ID, &cfg.AuditLogEnabled, &cfg.AuditLogRetentionDays,
		&cfg.CheckResultEnabled, &cfg.CheckResultRetentionDays)
	if errors.Is(err, sql.ErrNoRows) {
		cfg = models.RetentionConfig{
			ID:                       uuid.NewString(),
			AuditLogRetentionDays:    30,
			CheckResultRetentionDays: 30,
		}
		_, err := r.db.Exec(`
			INSERT INTO retention_config(id, audit_log_enabled, audit_log_retention_days, check_result_enabled, check_result_retention_days)
			VALUES(?, 0, ?, 0, ?)
		`, cfg.ID, cfg.AuditLogRetentionDays, cfg.CheckResultRetentionDays)
		if err != nil {
			return models.RetentionConfig{}, fmt.Errorf("create default retention config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return models.RetentionConfig{}, err
	}
	return cfg, nil
}

func (r *RetentionRepo) Update(cfg models.RetentionConfig) (models.RetentionConfig, error) {
	current, err := r.Get()
	if err != nil {
		return models.RetentionConfig{}, err
	}

	cfg.ID = current.ID
	_, err = r.db.Exec(`
		UPDATE retention_config SET audit_log_enabled = ?, audit_log_retention_days = ?,
			check_result_enabled = ?, check_result_retention_days = ?
		WHERE id = ?
	`, cfg.AuditLogEnabled, cfg.AuditLogRetentionDays, cfg.CheckResultEnabled,
		cfg.CheckResultRetentionDays, cfg.ID)
	if err != nil {
		return models.RetentionConfig{}, fmt.Errorf("update retention config: %w", err)
	}
	return cfg, nil
}

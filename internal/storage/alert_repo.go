package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MimoJanra/SitePulse/internal/models"
)

// AlertConfigRepo stores the single alert configuration row.
type AlertConfigRepo struct {
	db *sql.DB
}

func NewAlertConfigRepo(db *sql.DB) *AlertConfigRepo { return &AlertConfigRepo{db: db} }

// Get returns the alert configuration, creating the disabled default row on
// first access.
func (r *AlertConfigRepo) Get() (models.AlertConfig, error) {
	row := r.db.QueryRow(`
		SELECT id, telegram_bot_token, telegram_chat_id, tls_alert_days, domain_alert_days, enabled, updated_at
		FROM alert_config
		LIMIT 1
	`)

	var cfg models.AlertConfig
	err := row.Scan(&cfg.ID, &cfg.TelegramBotToken, &cfg.TelegramChatID,
		&cfg.TLSAlertDays, &cfg.DomainAlertDays, &cfg.Enabled, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.createDefault()
	}
	if err != nil {
		return models.AlertConfig{}, err
	}
	return cfg, nil
}

func (r *AlertConfigRepo) createDefault() (models.AlertConfig, error) {
	cfg := models.AlertConfig{
		ID:              uuid.NewString(),
		TLSAlertDays:    14,
		DomainAlertDays: 30,
		Enabled:         false,
		UpdatedAt:       time.Now().UTC(),
	}
	_, err := r.db.Exec(`
		INSERT INTO alert_config(id, telegram_bot_token, telegram_chat_id, tls_alert_days, domain_alert_days, enabled, updated_at)
		VALUES(?, '', '', ?, ?, 0, ?)
	`, cfg.ID, cfg.TLSAlertDays, cfg.DomainAlertDays, cfg.UpdatedAt)
	if err != nil {
		return models.AlertConfig{}, fmt.Errorf("create default alert config: %w", err)
	}
	return cfg, nil
}

func (r *AlertConfigRepo) Update(cfg models.AlertConfig) (models.AlertConfig, error) {
	current, err := r.Get()
	if err != nil {
		return models.AlertConfig{}, err
	}

	cfg.ID = current.ID
	cfg.UpdatedAt = time.Now().UTC()
	_, err = r.db.Exec(`
		UPDATE alert_config SET telegram_bot_token = ?, telegram_chat_id = ?,
			tls_alert_days = ?, domain_alert_days = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`, cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TLSAlertDays, cfg.DomainAlertDays,
		cfg.Enabled, cfg.UpdatedAt, cfg.ID)
	if err != nil {
		return models.AlertConfig{}, fmt.Errorf("update alert config: %w", err)
	}
	return cfg, nil
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/models"
)

func (s *Server) GetAlertConfig(w http.ResponseWriter, _ *http.Request) {
	cfg, err := s.Alerts.Get()
	if err != nil {
		s.Log.Error("load alert config failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load alert config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) UpdateAlertConfig(w http.ResponseWriter, r *http.Request) {
	var body models.AlertConfig
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.TLSAlertDays <= 0 || body.DomainAlertDays <= 0 {
		writeError(w, http.StatusBadRequest, "alert thresholds must be positive")
		return
	}

	cfg, err := s.Alerts.Update(body)
	if err != nil {
		s.Log.Error("update alert config failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update alert config")
		return
	}

	s.recordAudit(r, "alerts.config_update", "", "")
	writeJSON(w, http.StatusOK, cfg)
}

// TestAlert sends a test message to the configured Telegram destination so
// the operator can verify the token and chat before enabling alerting.
func (s *Server) TestAlert(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.Alerts.Get()
	if err != nil {
		s.Log.Error("load alert config failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load alert config")
		return
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		writeError(w, http.StatusBadRequest, "telegram bot token and chat id must be configured first")
		return
	}

	msg := "✅ <b>Test alert</b>\n\nIf you can read this, alert delivery is working.\n⏰ " +
		time.Now().Format(time.RFC1123)
	if err := s.Notifier.Send(r.Context(), cfg.TelegramBotToken, cfg.TelegramChatID, msg); err != nil {
		s.Log.Error("test alert failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "test alert delivery failed: "+err.Error())
		return
	}

	s.recordAudit(r, "alerts.test", cfg.TelegramChatID, "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "test alert sent"})
}

func (s *Server) GetRetentionConfig(w http.ResponseWriter, _ *http.Request) {
	cfg, err := s.Retention.Get()
	if err != nil {
		s.Log.Error("load retention config failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load retention config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) UpdateRetentionConfig(w http.ResponseWriter, r *http.Request) {
	var body models.RetentionConfig
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if (body.AuditLogEnabled && body.AuditLogRetentionDays <= 0) ||
		(body.CheckResultEnabled && body.CheckResultRetentionDays <= 0) {
		writeError(w, http.StatusBadRequest, "retention windows must be positive when cleanup is enabled")
		return
	}

	cfg, err := s.Retention.Update(body)
	if err != nil {
		s.Log.Error("update retention config failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update retention config")
		return
	}

	s.recordAudit(r, "retention.config_update", "", "")
	writeJSON(w, http.StatusOK, cfg)
}

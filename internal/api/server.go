package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/alerts"
	"github.com/MimoJanra/SitePulse/internal/auth"
	"github.com/MimoJanra/SitePulse/internal/checker"
	"github.com/MimoJanra/SitePulse/internal/config"
	"github.com/MimoJanra/SitePulse/internal/models"
	"github.com/MimoJanra/SitePulse/internal/storage"
)

// Server holds the handler dependencies.
type Server struct {
	Sites     *storage.SiteRepo
	Results   *storage.ResultRepo
	Alerts    *storage.AlertConfigRepo
	Retention *storage.RetentionRepo
	Users     *storage.UserRepo
	Groups    *storage.GroupRepo
	Audit     *storage.AuditRepo

	Prober   *checker.Prober
	Notifier alerts.Notifier

	Auth config.AuthConfig
	Log  *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var domainRegex = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// validateDomain normalizes user input down to a bare hostname. Scheme and
// path are tolerated and stripped.
func validateDomain(raw string) (string, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return "", errors.New("domain name required")
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.New("invalid url")
	}

	host := u.Hostname()
	if host == "" || !domainRegex.MatchString(host) {
		return "", errors.New("invalid domain name")
	}

	return host, nil
}

// recordAudit writes an audit entry for a mutation performed by the
// authenticated user. Audit failures are logged, never surfaced to the
// caller.
func (s *Server) recordAudit(r *http.Request, action, target, details string) {
	claims := auth.FromContext(r.Context())
	if claims == nil {
		return
	}

	err := s.Audit.Add(models.AuditEntry{
		UserID:   claims.Subject,
		Username: claims.Username,
		Action:   action,
		Target:   target,
		Details:  details,
	})
	if err != nil {
		s.Log.Error("audit write failed",
			zap.String("action", action),
			zap.String("target", target),
			zap.Error(err))
	}
}

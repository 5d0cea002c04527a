package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MimoJanra/SitePulse/internal/models"
)

type sitePayload struct {
	Domain string `json:"domain"`

	CheckHTTP  bool `json:"check_http"`
	CheckHTTPS bool `json:"check_https"`
	CheckTLS   bool `json:"check_tls"`
	CheckWhois bool `json:"check_whois"`

	HTTPIntervalSeconds int `json:"http_interval_seconds"`
	TLSIntervalDays     int `json:"tls_interval_days"`
	WhoisIntervalDays   int `json:"whois_interval_days"`
	FailureThreshold    int `json:"failure_threshold"`

	GroupIDs []string `json:"group_ids"`
}

func (s *Server) ListSites(w http.ResponseWriter, _ *http.Request) {
	sites, err := s.Sites.GetAll()
	if err != nil {
		s.Log.Error("list sites failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list sites")
		return
	}
	if sites == nil {
		sites = []models.Site{}
	}
	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) CreateSite(w http.ResponseWriter, r *http.Request) {
	var body sitePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	domain, err := validateDomain(body.Domain)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !body.CheckHTTP && !body.CheckHTTPS && !body.CheckTLS && !body.CheckWhois {
		// A site with nothing enabled would never be probed.
		body.CheckHTTPS = true
		body.CheckTLS = true
	}

	site, err := s.Sites.Create(models.Site{
		Domain:              domain,
		CheckHTTP:           body.CheckHTTP,
		CheckHTTPS:          body.CheckHTTPS,
		CheckTLS:            body.CheckTLS,
		CheckWhois:          body.CheckWhois,
		HTTPIntervalSeconds: body.HTTPIntervalSeconds,
		TLSIntervalDays:     body.TLSIntervalDays,
		WhoisIntervalDays:   body.WhoisIntervalDays,
		FailureThreshold:    body.FailureThreshold,
		GroupIDs:            body.GroupIDs,
	})
	if err != nil {
		s.Log.Error("create site failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create site")
		return
	}

	s.recordAudit(r, "site.create", site.Domain, "")
	writeJSON(w, http.StatusCreated, site)
}

func (s *Server) GetSite(w http.ResponseWriter, r *http.Request) {
	site, ok := s.loadSite(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, site)
}

func (s *Server) UpdateSite(w http.ResponseWriter, r *http.Request) {
	site, ok := s.loadSite(w, r)
	if !ok {
		return
	}

	var body sitePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	site.CheckHTTP = body.CheckHTTP
	site.CheckHTTPS = body.CheckHTTPS
	site.CheckTLS = body.CheckTLS
	site.CheckWhois = body.CheckWhois
	if body.HTTPIntervalSeconds > 0 {
		site.HTTPIntervalSeconds = body.HTTPIntervalSeconds
	}
	if body.TLSIntervalDays > 0 {
		site.TLSIntervalDays = body.TLSIntervalDays
	}
	if body.WhoisIntervalDays > 0 {
		site.WhoisIntervalDays = body.WhoisIntervalDays
	}
	if body.FailureThreshold > 0 {
		site.FailureThreshold = body.FailureThreshold
	}
	if body.GroupIDs != nil {
		site.GroupIDs = body.GroupIDs
	}

	updated, err := s.Sites.Update(site)
	if err != nil {
		s.Log.Error("update site failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update site")
		return
	}

	s.recordAudit(r, "site.update", updated.Domain, "")
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) UpdateSiteStatus(w http.ResponseWriter, r *http.Request) {
	site, ok := s.loadSite(w, r)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Status != models.SiteStatusActive && body.Status != models.SiteStatusPaused {
		writeError(w, http.StatusBadRequest, "status must be active or paused")
		return
	}

	if err := s.Sites.UpdateStatus(site.ID, body.Status); err != nil {
		s.Log.Error("update site status failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	s.recordAudit(r, "site.status", site.Domain, body.Status)
	writeJSON(w, http.StatusOK, map[string]string{"id": site.ID, "status": body.Status})
}

func (s *Server) DeleteSite(w http.ResponseWriter, r *http.Request) {
	site, ok := s.loadSite(w, r)
	if !ok {
		return
	}

	if err := s.Sites.Delete(site.ID); err != nil {
		s.Log.Error("delete site failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete site")
		return
	}

	s.recordAudit(r, "site.delete", site.Domain, "")
	writeJSON(w, http.StatusOK, map[string]string{"deleted": site.ID})
}

func (s *Server) ListSiteResults(w http.ResponseWriter, r *http.Request) {
	site, ok := s.loadSite(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := s.Results.ListBySite(site.ID, limit)
	if err != nil {
		s.Log.Error("list results failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	if results == nil {
		results = []models.CheckResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// CheckSiteNow runs every enabled signal for one site immediately,
// regardless of schedule, and returns the fresh outcome.
func (s *Server) CheckSiteNow(w http.ResponseWriter, r *http.Request) {
	site, ok := s.loadSite(w, r)
	if !ok {
		return
	}

	result, err := s.Prober.CheckNow(&site)
	if err != nil {
		s.Log.Error("immediate check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "check failed")
		return
	}

	s.recordAudit(r, "site.check", site.Domain, "")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) loadSite(w http.ResponseWriter, r *http.Request) (models.Site, bool) {
	id := chi.URLParam(r, "id")
	site, err := s.Sites.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "site not found")
		return models.Site{}, false
	}
	if err != nil {
		s.Log.Error("load site failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load site")
		return models.Site{}, false
	}
	return site, true
}

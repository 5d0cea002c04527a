package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MimoJanra/SitePulse/internal/models"
)

// SiteRepo is the site registry: per-site check configuration plus the
// mutable probe state (failure counter, last-checked timestamps).
type SiteRepo struct {
	db *sql.DB
}

func NewSiteRepo(db *sql.DB) *SiteRepo { return &SiteRepo{db: db} }

const siteColumns = `id, domain, check_http, check_https, check_tls, check_whois,
	http_interval_seconds, tls_interval_days, whois_interval_days,
	failure_threshold, consecutive_failures,
	last_http_check, last_tls_check, last_whois_check,
	status, created_at, updated_at`

func scanSite(row interface{ Scan(...any) error }) (models.Site, error) {
	var (
		s                 models.Site
		lastHTTP, lastTLS sql.NullTime
		lastWhois         sql.NullTime
	)
	err := row.Scan(&s.ID, &s.Domain, &s.CheckHTTP, &s.CheckHTTPS, &s.CheckTLS, &s.CheckWhois,
		&s.HTTPIntervalSeconds, &s.TLSIntervalDays, &s.WhoisIntervalDays,
		&s.FailureThreshold, &s.ConsecutiveFailures,
		&lastHTTP, &lastTLS, &lastWhois,
		&s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return models.Site{}, err
	}
	if lastHTTP.Valid {
		t := lastHTTP.Time
		s.LastHTTPCheck = &t
	}
	if lastTLS.Valid {
		t := lastTLS.Time
		s.LastTLSCheck = &t
	}
	if lastWhois.Valid {
		t := lastWhois.Time
		s.LastWhoisCheck = &t
	}
	return s, nil
}

// Create inserts a new site with registry defaults applied for any zero
// interval/threshold values.
func (r *SiteRepo) Create(s models.Site) (models.Site, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.HTTPIntervalSeconds <= 0 {
		s.HTTPIntervalSeconds = 300
	}
	if s.TLSIntervalDays <= 0 {
		s.TLSIntervalDays = 1
	}
	if s.WhoisIntervalDays <= 0 {
		s.WhoisIntervalDays = 1
	}
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = 3
	}
	if s.Status == "" {
		s.Status = models.SiteStatusActive
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO sites(id, domain, check_http, check_https, check_tls, check_whois,
			http_interval_seconds, tls_interval_days, whois_interval_days,
			failure_threshold, consecutive_failures, status, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
	`, s.ID, s.Domain, s.CheckHTTP, s.CheckHTTPS, s.CheckTLS, s.CheckWhois,
		s.HTTPIntervalSeconds, s.TLSIntervalDays, s.WhoisIntervalDays,
		s.FailureThreshold, s.Status, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return models.Site{}, fmt.Errorf("insert site: %w", err)
	}

	if len(s.GroupIDs) > 0 {
		if err := r.setGroups(s.ID, s.GroupIDs); err != nil {
			return models.Site{}, err
		}
	}
	return s, nil
}

func (r *SiteRepo) GetAll() ([]models.Site, error) {
	return r.list("SELECT " + siteColumns + " FROM sites ORDER BY domain")
}

// GetActive returns the sites the scheduler should probe this cycle.
func (r *SiteRepo) GetActive() ([]models.Site, error) {
	return r.list("SELECT "+siteColumns+" FROM sites WHERE status = ? ORDER BY domain", models.SiteStatusActive)
}

func (r *SiteRepo) list(query string, args ...any) ([]models.Site, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range sites {
		ids, err := r.groupIDs(sites[i].ID)
		if err != nil {
			return nil, err
		}
		sites[i].GroupIDs = ids
	}
	return sites, nil
}

func (r *SiteRepo) GetByID(id string) (models.Site, error) {
	row := r.db.QueryRow("SELECT "+siteColumns+" FROM sites WHERE id = ?", id)
	s, err := scanSite(row)
	if err != nil {
		return models.Site{}, err
	}
	s.GroupIDs, err = r.groupIDs(id)
	if err != nil {
		return models.Site{}, err
	}
	return s, nil
}

// Update rewrites the site's check configuration. Probe state (failure
// counter, last-checked timestamps) is not touched here; that belongs to
// SaveCheckState.
func (r *SiteRepo) Update(s models.Site) (models.Site, error) {
	_, err := r.db.Exec(`
		UPDATE sites SET check_http = ?, check_https = ?, check_tls = ?, check_whois = ?,
			http_interval_seconds = ?, tls_interval_days = ?, whois_interval_days = ?,
			failure_threshold = ?, updated_at = ?
		WHERE id = ?
	`, s.CheckHTTP, s.CheckHTTPS, s.CheckTLS, s.CheckWhois,
		s.HTTPIntervalSeconds, s.TLSIntervalDays, s.WhoisIntervalDays,
		s.FailureThreshold, time.Now().UTC(), s.ID)
	if err != nil {
		return models.Site{}, fmt.Errorf("update site: %w", err)
	}
	if s.GroupIDs != nil {
		if err := r.setGroups(s.ID, s.GroupIDs); err != nil {
			return models.Site{}, err
		}
	}
	return r.GetByID(s.ID)
}

func (r *SiteRepo) UpdateStatus(id, status string) error {
	res, err := r.db.Exec("UPDATE sites SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveCheckState is the single commit point for mutable probe state: the
// consecutive-failure counter and the per-signal last-checked timestamps.
func (r *SiteRepo) SaveCheckState(s models.Site) error {
	_, err := r.db.Exec(`
		UPDATE sites SET consecutive_failures = ?,
			last_http_check = ?, last_tls_check = ?, last_whois_check = ?,
			updated_at = ?
		WHERE id = ?
	`, s.ConsecutiveFailures, nullableTime(s.LastHTTPCheck), nullableTime(s.LastTLSCheck),
		nullableTime(s.LastWhoisCheck), time.Now().UTC(), s.ID)
	if err != nil {
		return fmt.Errorf("save check state for %s: %w", s.Domain, err)
	}
	return nil
}

func (r *SiteRepo) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM sites WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SiteRepo) groupIDs(siteID string) ([]string, error) {
	rows, err := r.db.Query("SELECT group_id FROM site_groups WHERE site_id = ?", siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SiteRepo) setGroups(siteID string, groupIDs []string) error {
	if _, err := r.db.Exec("DELETE FROM site_groups WHERE site_id = ?", siteID); err != nil {
		return err
	}
	for _, gid := range groupIDs {
		if _, err := r.db.Exec("INSERT OR IGNORE INTO site_groups(site_id, group_id) VALUES(?, ?)", siteID, gid); err != nil {
			return fmt.Errorf("assign group %s: %w", gid, err)
		}
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MimoJanra/SitePulse/internal/models"
)

// ResultRepo persists check outcomes, one row per cycle per site that had at
// least one signal due.
type ResultRepo struct {
	db *sql.DB
}

func NewResultRepo(db *sql.DB) *ResultRepo { return &ResultRepo{db: db} }

func (r *ResultRepo) Add(res models.CheckResult) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.CheckedAt.IsZero() {
		res.CheckedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO check_results(id, site_id, healthy, http_status, tls_days_left, domain_days_left, error_details, checked_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, res.ID, res.SiteID, res.Healthy, nullableInt(res.HTTPStatus), nullableInt(res.TLSDaysLeft),
		nullableInt(res.DomainDaysLeft), res.ErrorDetails, res.CheckedAt)
	if err != nil {
		return fmt.Errorf("insert check result: %w", err)
	}
	return nil
}

// LatestBySite returns the most recent outcome for a site, or (nil, nil)
// when the site has never been checked. Used for signal carry-forward.
func (r *ResultRepo) LatestBySite(siteID string) (*models.CheckResult, error) {
	row := r.db.QueryRow(`
		SELECT id, site_id, healthy, http_status, tls_days_left, domain_days_left, error_details, checked_at
		FROM check_results
		WHERE site_id = ?
		ORDER BY checked_at DESC
		LIMIT 1
	`, siteID)

	res, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ResultRepo) ListBySite(siteID string, limit int) ([]models.CheckResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(`
		SELECT id, site_id, healthy, http_status, tls_days_left, domain_days_left, error_details, checked_at
		FROM check_results
		WHERE site_id = ?
		ORDER BY checked_at DESC
		LIMIT ?
	`, siteID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.CheckResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// DeleteOlderThan removes outcomes checked before cutoff and returns the
// number of deleted rows. Used by the retention sweep.
func (r *ResultRepo) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec("DELETE FROM check_results WHERE checked_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanResult(row interface{ Scan(...any) error }) (models.CheckResult, error) {
	var (
		res          models.CheckResult
		httpStatus   sql.NullInt64
		tlsDays      sql.NullInt64
		domainDays   sql.NullInt64
		errorDetails sql.NullString
	)
	err := row.Scan(&res.ID, &res.SiteID, &res.Healthy, &httpStatus, &tlsDays, &domainDays, &errorDetails, &res.CheckedAt)
	if err != nil {
		return models.CheckResult{}, err
	}
	res.HTTPStatus = intPtr(httpStatus)
	res.TLSDaysLeft = intPtr(tlsDays)
	res.DomainDaysLeft = intPtr(domainDays)
	if errorDetails.Valid {
		res.ErrorDetails = errorDetails.String
	}
	return res, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

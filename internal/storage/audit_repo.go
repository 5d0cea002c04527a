package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MimoJanra/SitePulse/internal/models"
)

// AuditRepo is an append-only log of user-facing mutations.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) Add(e models.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO audit_logs(id, user_id, username, action, target, details, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.Username, e.Action, e.Target, e.Details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepo) List(limit int) ([]models.AuditEntry, error) {
	return r.list("SELECT id, user_id, username, action, target, details, created_at FROM audit_logs ORDER BY created_at DESC LIMIT ?", normalizeLimit(limit))
}

func (r *AuditRepo) ListByUser(userID string, limit int) ([]models.AuditEntry, error) {
	return r.list("SELECT id, user_id, username, action, target, details, created_at FROM audit_logs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?", userID, normalizeLimit(limit))
}

func (r *AuditRepo) list(query string, args ...any) ([]models.AuditEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var (
			e               models.AuditEntry
			target, details sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Action, &target, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Target = target.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan removes audit entries created before cutoff and returns
// the number of deleted rows. Used by the retention sweep.
func (r *AuditRepo) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec("DELETE FROM audit_logs WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 200
	}
	return limit
}
